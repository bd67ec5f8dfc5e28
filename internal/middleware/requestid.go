package middleware

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestID 沿用客户端传入的 X-Request-ID，否则生成 UUIDv4
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			u, err := uuid.NewV4()
			if err != nil {
				log.Printf("[request] failed to generate id: %v", err)
			} else {
				id = u.String()
			}
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
