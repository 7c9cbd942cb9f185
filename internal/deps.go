package internal

import (
	"bitwise74/community-api/internal/service"
	"bitwise74/community-api/pkg/middleware"

	"gorm.io/gorm"
)

// Deps is handed to every handler
type Deps struct {
	DB           *gorm.DB
	Gateway      *service.Gateway
	Gate         *service.Gate
	Sessions     *service.SessionManager
	Verification *service.VerificationService
	RoleAdmin    *service.RoleAdmin
	MailQueue    *service.MailQueue
	Auth         *middleware.Auth
}
