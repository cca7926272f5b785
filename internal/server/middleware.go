package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/genlearn/internal/auth"
	"github.com/abhisek/genlearn/internal/logger"
)

var errAuthDisabled = errors.New("bearer authentication is not configured")

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", auth.DeviceHeader},
		ExposeHeaders:    []string{auth.DeviceHeader},
		AllowCredentials: true,
	})
}

// identityMiddleware resolves the caller. A bearer token must verify;
// without one the caller is anonymous and scoped by the device header,
// which is echoed back so a generated id can be kept by the client.
func identityMiddleware(verifier *auth.Verifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id auth.Identity
		if token := auth.BearerToken(c.GetHeader("Authorization")); token != "" {
			if verifier == nil || !verifier.Enabled() {
				RespondError(c, http.StatusUnauthorized, "unauthorized", errAuthDisabled)
				return
			}
			verified, err := verifier.Verify(token)
			if err != nil {
				log.Debug("bearer token rejected", "error", err)
				RespondError(c, http.StatusUnauthorized, "unauthorized", err)
				return
			}
			id = verified
		} else {
			id = auth.Anonymous(c.GetHeader(auth.DeviceHeader))
			c.Header(auth.DeviceHeader, id.DeviceID)
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	if id, ok := auth.FromContext(c.Request.Context()); ok {
		return id
	}
	return auth.Anonymous(c.GetHeader(auth.DeviceHeader))
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
