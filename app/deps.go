package app

import (
	"bitwise74/community-api/internal"
	"bitwise74/community-api/internal/service"
	"bitwise74/community-api/internal/store"
	"bitwise74/community-api/pkg/middleware"
	"bitwise74/community-api/pkg/security"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config is everything NewDeps needs to wire the auth core
type Config struct {
	BaseURL           string
	SessionTTL        time.Duration
	VerificationTTL   time.Duration
	ResendCooldown    time.Duration
	MinPasswordLength int

	CookieName    string
	CookieSecure  bool
	LoginPath     string
	ForbiddenPath string

	MailTimeout   time.Duration
	MailWorkers   int
	MailQueueSize int

	// Mail defaults to a LogDispatcher
	Mail   service.Dispatcher
	Hasher service.PasswordHasher
	Clock  service.Clock
}

// ConfigFromViper reads Config from the settings loaded by config.Setup
func ConfigFromViper() Config {
	c := Config{
		BaseURL:           viper.GetString("app.base_url"),
		SessionTTL:        viper.GetDuration("session.ttl"),
		VerificationTTL:   viper.GetDuration("verification.ttl"),
		ResendCooldown:    viper.GetDuration("verification.resend_cooldown"),
		MinPasswordLength: viper.GetInt("security.min_password_length"),
		CookieName:        viper.GetString("session.cookie_name"),
		CookieSecure:      viper.GetBool("session.cookie_secure"),
		LoginPath:         viper.GetString("session.login_path"),
		ForbiddenPath:     viper.GetString("session.forbidden_path"),
		MailTimeout:       viper.GetDuration("mail.timeout"),
		MailWorkers:       viper.GetInt("mail.workers"),
		MailQueueSize:     viper.GetInt("mail.queue_size"),
	}

	if viper.GetBool("mail.enabled") {
		c.Mail = service.NewSMTPDispatcher(service.SMTPConfig{
			Host:     viper.GetString("mail.host"),
			Port:     viper.GetInt("mail.port"),
			Username: viper.GetString("mail.username"),
			Password: viper.GetString("mail.password"),
			From:     viper.GetString("mail.sender_address"),
			SiteName: viper.GetString("app.site_name"),
			SSL:      viper.GetInt("mail.port") == 465,
		})
	}

	return c
}

// NewDeps wires the stores and services on top of db and starts the mail
// workers. Stop them with Deps.MailQueue.Close.
func NewDeps(db *gorm.DB, c Config) (*internal.Deps, error) {
	if c.Mail == nil {
		c.Mail = &service.LogDispatcher{}
	}

	if c.Hasher == nil {
		c.Hasher = security.New()
	}

	users := store.NewUserStore(db)
	sessions := service.NewSessionManager(store.NewSessionStore(db), c.SessionTTL, c.Clock)
	verification := service.NewVerificationService(users, c.VerificationTTL, c.Clock)

	queue := service.NewMailQueue(c.MailQueueSize, c.MailWorkers, c.MailTimeout, zap.L())
	queue.StartWorkerPool()

	gw, err := service.NewGateway(service.GatewayConfig{
		Users:             users,
		Verification:      verification,
		Sessions:          sessions,
		Hasher:            c.Hasher,
		Mail:              c.Mail,
		Queue:             queue,
		BaseURL:           c.BaseURL,
		MinPasswordLength: c.MinPasswordLength,
		ResendCooldown:    c.ResendCooldown,
		Clock:             c.Clock,
	})
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("failed to create gateway, %w", err)
	}

	gate := service.NewGate(sessions)

	return &internal.Deps{
		DB:           db,
		Gateway:      gw,
		Gate:         gate,
		Sessions:     sessions,
		Verification: verification,
		RoleAdmin:    service.NewRoleAdmin(users, nil),
		MailQueue:    queue,
		Auth: &middleware.Auth{
			Gate:          gate,
			CookieName:    c.CookieName,
			CookieSecure:  c.CookieSecure,
			LoginPath:     c.LoginPath,
			ForbiddenPath: c.ForbiddenPath,
		},
	}, nil
}
