package clients

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

type Handler struct {
	svc       *Service
	pageLimit int
}

// 旅券情報を含むので参照も管理者のみ
func RegisterRoutes(admin gin.IRoutes, svc *Service, pageLimit int) {
	h := &Handler{svc: svc, pageLimit: pageLimit}

	admin.GET("/clients", h.List)
	admin.GET("/clients/:id", h.Get)

	admin.POST("/clients", h.Create)
	admin.PUT("/clients/:id", h.Update)
	admin.DELETE("/clients/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req ClientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Invalid("invalid json"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := listing.PathID(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := listing.PathID(c)
	if !ok {
		return
	}
	var req ClientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Invalid("invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := listing.PathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) List(c *gin.Context) {
	q, err := listing.ParseQuery(c, h.pageLimit)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
