// Package user contains the account endpoints
package user

import (
	"bitwise74/community-api/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps an auth core error to its status code. Only the public
// message of the error is ever sent.
func respondError(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	body := gin.H{
		"error":     service.PublicMessage(err),
		"requestID": requestID,
	}

	var status int

	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailNotVerified):
		status = http.StatusForbidden
		body["canResend"] = true
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		body["error"] = "Internal server error"

		zap.L().Error("Request failed", zap.String("detail", service.Detail(err)), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(status, body)
}

// bindBody binds the JSON or form body into dst and responds on failure
func bindBody(c *gin.Context, dst any) bool {
	err := c.ShouldBind(dst)
	if err == nil {
		return true
	}

	requestID := c.GetString("requestID")

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":     "Request body size exceeds limit",
			"requestID": requestID,
		})
		return false
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"requestID": requestID,
	})
	return false
}
