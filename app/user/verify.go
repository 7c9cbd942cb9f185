package user

import (
	"bitwise74/community-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type resendBody struct {
	Email string `json:"email" form:"email"`
}

// UserVerify consumes the token from a verification link
func UserVerify(c *gin.Context, d *internal.Deps) {
	token := c.Query("token")
	if token == "" {
		token = c.PostForm("token")
	}

	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No verification token provided",
			"requestID": c.GetString("requestID"),
		})
		return
	}

	if err := d.Gateway.Verify(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Email verified successfully, you can now log in",
		"requestID": c.GetString("requestID"),
	})
}

// UserResend sends a new verification link. The answer is the same whether
// or not the email belongs to an account waiting for verification.
func UserResend(c *gin.Context, d *internal.Deps) {
	var data resendBody
	if !bindBody(c, &data) {
		return
	}

	res, err := d.Gateway.ResendVerification(c.Request.Context(), data.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   res.Success,
		"message":   res.Message,
		"requestID": c.GetString("requestID"),
	})
}
