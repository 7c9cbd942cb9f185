package middleware

import (
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/internal/service"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userKey  = "user"
	tokenKey = "sessionToken"
)

// Gate is implemented by service.Gate
type Gate interface {
	Authenticate(ctx context.Context, token string) (*service.AuthResult, error)
	RequireRole(ctx context.Context, token string, allowed ...model.Role) (*model.UserView, error)
}

// Auth turns the session cookie into an explicit token for the gate and
// decides what a client that fails a check gets to see. Browsers are sent
// to LoginPath or ForbiddenPath, JSON clients get a status code.
type Auth struct {
	Gate          Gate
	CookieName    string
	CookieSecure  bool
	LoginPath     string
	ForbiddenPath string
}

// Session resolves the cookie, if any, and stores the user in the context.
// It never rejects a request on its own.
func (a *Auth) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := a.token(c)
		if token == "" {
			c.Next()
			return
		}

		res, err := a.Gate.Authenticate(c.Request.Context(), token)
		if err != nil {
			a.internalError(c, err)
			return
		}

		if res.Success {
			setUser(c, res.User)
		}

		c.Next()
	}
}

// RequireAuth only lets requests with a valid session through
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}

		res, err := a.Gate.Authenticate(c.Request.Context(), a.token(c))
		if err != nil {
			a.internalError(c, err)
			return
		}

		if !res.Success {
			a.deny(c, http.StatusUnauthorized, a.LoginPath, service.ErrUnauthenticated)
			return
		}

		setUser(c, res.User)
		c.Next()
	}
}

// RequireRole lets the request through only if the session belongs to a
// user whose current role is one of roles
func (a *Auth) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.Gate.RequireRole(c.Request.Context(), a.token(c), roles...)
		switch {
		case err == nil:
			setUser(c, u)
			c.Next()
		case errors.Is(err, service.ErrUnauthenticated):
			a.deny(c, http.StatusUnauthorized, a.LoginPath, err)
		case errors.Is(err, service.ErrUnauthorized):
			zap.L().Debug("Role check failed",
				zap.String("detail", service.Detail(err)),
				zap.String("requestID", c.GetString("requestID")))

			a.deny(c, http.StatusForbidden, a.ForbiddenPath, err)
		default:
			a.internalError(c, err)
		}
	}
}

// SetCookie hands a new session to the client, living as long as the session
func (a *Auth) SetCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.CookieName, token, int(ttl.Seconds()), "/", "", a.CookieSecure, true)
}

func (a *Auth) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.CookieName, "", -1, "/", "", a.CookieSecure, true)
}

// Token returns the session token presented with the request, or ""
func (a *Auth) Token(c *gin.Context) string {
	return a.token(c)
}

func (a *Auth) token(c *gin.Context) string {
	if t := c.GetString(tokenKey); t != "" {
		return t
	}

	t, err := c.Cookie(a.CookieName)
	if err != nil {
		return ""
	}

	c.Set(tokenKey, t)
	return t
}

func (a *Auth) deny(c *gin.Context, status int, redirect string, err error) {
	if redirect == "" || WantsJSON(c) {
		c.AbortWithStatusJSON(status, gin.H{
			"error":     service.PublicMessage(err),
			"requestID": c.GetString("requestID"),
		})
		return
	}

	c.Redirect(http.StatusSeeOther, redirect)
	c.Abort()
}

func (a *Auth) internalError(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	zap.L().Error("Failed to check session",
		zap.String("detail", service.Detail(err)),
		zap.String("requestID", requestID))

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})
}

func setUser(c *gin.Context, u *model.UserView) {
	c.Set(userKey, u)
	c.Set("userID", u.ID)
}

// CurrentUser returns the user a previous middleware authenticated
func CurrentUser(c *gin.Context) (*model.UserView, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}

	u, ok := v.(*model.UserView)
	return u, ok && u != nil
}

// WantsJSON reports whether the client asked for JSON rather than a page
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
