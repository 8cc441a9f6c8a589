package reports

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/config"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatPDF  = "pdf"
)

type Handler struct {
	svc *Service
	cfg config.ReportConfig
}

// r: 集計のみ, admin: 利用者名を含む帳票
func RegisterRoutes(r, admin gin.IRoutes, svc *Service, cfg config.ReportConfig) {
	h := &Handler{svc: svc, cfg: cfg}

	for _, ext := range []string{"", ".csv", ".pdf"} {
		r.GET("/reports/library-stats"+ext, h.LibraryStats)
		admin.GET("/reports/overdue"+ext, h.Overdue)
	}
	// :id は "12" / "12.pdf" / "12.csv"
	admin.GET("/reports/clients/:id", h.Client)
}

// 拡張子 -> ?format= -> json の順で決める
func formatOf(c *gin.Context) (string, error) {
	f := strings.TrimPrefix(path.Ext(c.Request.URL.Path), ".")
	if f == "" {
		f = strings.ToLower(c.DefaultQuery("format", formatJSON))
	}
	switch f {
	case formatJSON, formatCSV, formatPDF:
		return f, nil
	}
	return "", apierr.Invalid("format must be json, csv or pdf")
}

type documenter interface{ Document() Document }

func (h *Handler) write(c *gin.Context, name string, v documenter) {
	format, err := formatOf(c)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case formatJSON:
		c.JSON(http.StatusOK, v)
		return
	case formatCSV:
		err = WriteCSV(&buf, v.Document(), h.cfg.CSVEncoding)
		contentType = "text/csv; charset=" + h.cfg.CSVEncoding
	case formatPDF:
		err = WritePDF(&buf, v.Document(), h.cfg.FontPath)
		contentType = "application/pdf"
	}
	if err != nil {
		apierr.Respond(c, apierr.WrapUnknown(err, apierr.CodeInternal, "render report failed"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) LibraryStats(c *gin.Context) {
	res, err := h.svc.LibraryStats(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	h.write(c, "library_stats", res)
}

func (h *Handler) Overdue(c *gin.Context) {
	res, err := h.svc.OverdueReport(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	h.write(c, "overdue_books", res)
}

func (h *Handler) Client(c *gin.Context) {
	raw := c.Param("id")
	raw = strings.TrimSuffix(raw, path.Ext(raw))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		apierr.Respond(c, apierr.Invalid("id must be a positive integer"))
		return
	}
	res, err := h.svc.ClientReport(c.Request.Context(), id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	h.write(c, "client_report_"+strconv.FormatUint(id, 10), res)
}
