// Package httpapi exposes the product catalog over HTTP with gin.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopnex/internal/catalog"
)

// jsonError is the body of every error response.
type jsonError struct {
	Error string `json:"error"`
}

// WriteJSONError aborts the request with status and message.
func WriteJSONError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, jsonError{Error: message})
}

// statusOf maps a catalog error kind onto an HTTP status.
func statusOf(kind catalog.Kind) int {
	switch kind {
	case catalog.KindValidation:
		return http.StatusBadRequest
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindAuthorization:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError translates err at the handler boundary.
func respondError(c *gin.Context, err error) {
	kind := catalog.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request_failed",
			"path", c.FullPath(),
			"request_id", RequestIDFromContext(c),
			"error", err,
		)
	}
	WriteJSONError(c, status, catalog.MessageOf(err))
}
