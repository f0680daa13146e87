package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quillfeed/quillfeed/internal/apperr"
	"github.com/quillfeed/quillfeed/internal/auth"
	"github.com/quillfeed/quillfeed/pkg/logging"
	"github.com/quillfeed/quillfeed/pkg/telemetry"
)

// principalKey is the gin context key holding the resolved principal
const principalKey = "principal"

// RequestLogger logs each request with a span covering its handling
func RequestLogger() gin.HandlerFunc {
	logger := logging.WithComponent("http")

	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "http "+c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		span.End()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// RequireAuth resolves the bearer token into a principal, rejecting the
// request when it is missing or invalid
func RequireAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(c, apperr.Unauthorized("could not validate credentials"))
			return
		}

		principal, err := authService.ResolvePrincipal(token)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// principalFrom returns the principal set by RequireAuth
func principalFrom(c *gin.Context) auth.Principal {
	return c.MustGet(principalKey).(auth.Principal)
}
