package user

import (
	"bitwise74/community-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if !bindBody(c, &data) {
		return
	}

	res, err := d.Gateway.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Set("userID", res.User.ID)
	d.Auth.SetCookie(c, res.Session.Token, d.Sessions.TTL())

	c.JSON(http.StatusOK, gin.H{
		"user":      res.User,
		"expiresAt": res.Session.ExpiresAt,
	})
}

// UserLogout ends the current session, if there is one, and clears the cookie
func UserLogout(c *gin.Context, d *internal.Deps) {
	if err := d.Gateway.Logout(c.Request.Context(), d.Auth.Token(c)); err != nil {
		respondError(c, err)
		return
	}

	d.Auth.ClearCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
