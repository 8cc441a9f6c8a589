package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"
)

// RequestID: X-Request-ID を引き継ぐ（無ければ採番）。レスポンスにも返す。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header(HeaderRequestID, id)

		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 500 {
			log.Printf("[ERROR] %s %s %d rid=%s (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), id, time.Since(start))
		}
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(CtxRequestIDKey)
}
