package user

import (
	"bitwise74/community-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
}

// UserRegister creates an unverified account. No session cookie is set, the
// user has to verify their email and log in first.
func UserRegister(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if !bindBody(c, &data) {
		return
	}

	res, err := d.Gateway.Register(c.Request.Context(), data.Email, data.Password, data.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   res.Success,
		"message":   res.Message,
		"requestID": c.GetString("requestID"),
	})
}
