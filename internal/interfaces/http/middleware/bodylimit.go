package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradeops/backend/internal/interfaces/http/dto"
)

// BodyLimit caps request bodies at maxBytes. Requests announcing a larger
// Content-Length are refused up front; chunked bodies fail with
// *http.MaxBytesError once the handler reads past the cap. A non-positive
// maxBytes disables the check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge,
				"Request body exceeds maximum allowed size",
				getRequestID(c),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
