// Package middleware provides the HTTP middleware chain of the API server.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "request_id"
	// MaxRequestIDLength caps client-supplied request IDs
	MaxRequestIDLength = 128
)

// RequestID echoes the client's X-Request-ID, truncated, or issues a UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := clampRequestID(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = generateRequestID()
		}
		c.Set(RequestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func generateRequestID() string {
	return uuid.NewString()
}

func clampRequestID(id string) string {
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

// getRequestID also works ahead of RequestID in the chain
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDContextKey); id != "" {
		return id
	}
	return clampRequestID(c.GetHeader(RequestIDHeader))
}
