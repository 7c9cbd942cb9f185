package middleware

import (
	"bitwise74/community-api/cloudflare"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const turnstileHeader = "TurnstileToken"

// TurnstileVerifier is implemented by cloudflare.TurnstileClient
type TurnstileVerifier interface {
	Verify(ctx context.Context, token, ip string) (*cloudflare.TurnstileResult, error)
}

// NewTurnstileMiddleware rejects requests whose TurnstileToken header the
// verifier doesn't accept. A nil verifier disables the check.
func NewTurnstileMiddleware(v TurnstileVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			c.Next()
			return
		}

		requestID := c.GetString("requestID")

		token := c.Request.Header.Get(turnstileHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Missing or invalid turnstile token",
				"requestID": requestID,
			})
			return
		}

		res, err := v.Verify(c.Request.Context(), token, c.ClientIP())
		if err != nil {
			zap.L().Error("Failed to verify turnstile token", zap.Error(err), zap.String("requestID", requestID))

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})
			return
		}

		if !res.Success {
			zap.L().Debug("Turnstile rejected request", zap.Strings("error_codes", res.ErrorCodes), zap.String("requestID", requestID))

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
