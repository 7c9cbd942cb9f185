// Package admin contains the entry points of the role gated administrative
// features. The features themselves live outside this service, these
// endpoints only confirm access.
package admin

import (
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Feature answers for f. Must run after RequireRole for f's roles.
func Feature(f model.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":     "Authentication required",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		zap.L().Debug("Admin feature accessed",
			zap.String("feature", string(f)),
			zap.String("userID", u.ID),
			zap.String("requestID", c.GetString("requestID")))

		c.JSON(http.StatusOK, gin.H{
			"feature": f,
			"user":    u,
		})
	}
}
