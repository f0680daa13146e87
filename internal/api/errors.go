package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quillfeed/quillfeed/internal/apperr"
	"github.com/quillfeed/quillfeed/pkg/logging"
)

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes an error response carrying the stable kind and the
// client-safe reason. Unexpected errors are logged and surfaced as a bare
// internal error, never with internal detail.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnknown {
		logging.GetLogger().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(statusFor(kind), gin.H{
		"error":  kind.String(),
		"detail": apperr.ReasonOf(err),
	})
}
