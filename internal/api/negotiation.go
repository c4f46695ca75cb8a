package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAccept rejects requests whose Accept header does not admit mimetype.
// A missing header is rejected as well.
func RequireAccept(mimetype string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Accept") == "" || c.NegotiateFormat(mimetype) == "" {
			RespondMessage(c, http.StatusNotAcceptable, "Request must accept %s data", mimetype)
			return
		}
		c.Next()
	}
}

// RequireContentType rejects requests whose body is not of type mimetype.
func RequireContentType(mimetype string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.ContentType(), mimetype) {
			RespondMessage(c, http.StatusUnsupportedMediaType, "Request must contain %s data", mimetype)
			return
		}
		c.Next()
	}
}
