package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iotsignals/passage-api/internal/logger"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	APIKeys []string
}

// Authenticate validates the Authorization header against the configured
// API keys. The expected header form is "Token <key>".
func Authenticate(authHeader string, cfg AuthConfig) error {
	if len(cfg.APIKeys) == 0 {
		return errors.New("no API keys configured")
	}

	if authHeader == "" {
		return errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "token") {
		return errors.New("invalid Authorization header format")
	}

	for _, key := range cfg.APIKeys {
		if key != "" && key == parts[1] {
			return nil
		}
	}

	return errors.New("invalid API key")
}

// APIKeyAuth returns a gin middleware that requires a valid API key
func APIKeyAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := Authenticate(c.GetHeader("Authorization"), cfg); err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication failed",
			})
			return
		}

		c.Next()
	}
}
