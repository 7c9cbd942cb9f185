package user

import (
	"bitwise74/community-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserMe returns the user behind the session. Must run after RequireAuth.
func UserMe(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Authentication required",
			"requestID": c.GetString("requestID"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": u,
	})
}
