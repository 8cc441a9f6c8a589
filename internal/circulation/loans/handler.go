package loans

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

type Handler struct {
	svc       *Service
	pageLimit int
}

// 貸出台帳は参照も管理者のみ
func RegisterRoutes(admin gin.IRoutes, svc *Service, pageLimit int) {
	h := &Handler{svc: svc, pageLimit: pageLimit}

	admin.GET("/loans", h.List)
	admin.GET("/loans/:key", h.Get)

	admin.POST("/loans", h.Issue)
	admin.POST("/loans/:key/return", h.Return)
	admin.DELETE("/loans/:key", h.Delete)
}

func (h *Handler) Issue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Invalid("invalid json"))
		return
	}
	res, err := h.svc.Issue(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Header("Location", "/loans/"+res.ULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Return(c *gin.Context) {
	res, err := h.svc.Return(c.Request.Context(), c.Param("key"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) List(c *gin.Context) {
	q, err := listing.ParseQuery(c, h.pageLimit)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	var f ListFilter
	if v := c.Query("open"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			apierr.Respond(c, apierr.Invalid("open must be true or false"))
			return
		}
		f.Open = &b
	}
	for key, dst := range map[string]**uint64{"client_id": &f.ClientID, "book_id": &f.BookID} {
		if v := c.Query(key); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				apierr.Respond(c, apierr.Invalid(key+" must be a positive integer"))
				return
			}
			*dst = &id
		}
	}

	res, err := h.svc.List(c.Request.Context(), f, q)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("key")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
