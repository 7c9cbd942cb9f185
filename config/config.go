// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	setRole        = pflag.String("set-role", "", "Changes the role of a user and exits, format email=Role")
	configPath     = pflag.String("config", ".", "Directory containing config.toml")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"sqlite", "postgres"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	// A .env file is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file, %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	bindEnvs()
	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		fmt.Println("[WARNING]: config.toml not found, running on defaults and environment variables")
	}

	return validate()
}

// SetRoleFlag returns the value of --set-role, empty if the server should
// start normally
func SetRoleFlag() string {
	return *setRole
}

// ParseSetRole splits an email=Role assignment
func ParseSetRole(s string) (email, role string, err error) {
	email, role, ok := strings.Cut(s, "=")
	email, role = strings.TrimSpace(email), strings.TrimSpace(role)

	if !ok || email == "" || role == "" {
		return "", "", errors.New("--set-role expects email=Role")
	}

	return email, role, nil
}

func bindEnvs() {
	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.base_url", "app_base_url")
	v.BindEnv("app.cors_origins", "app_cors_origins")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("session.ttl", "session_ttl")
	v.BindEnv("session.cleanup_interval", "session_cleanup_interval")
	v.BindEnv("session.cookie_name", "session_cookie_name")
	v.BindEnv("session.cookie_secure", "session_cookie_secure")

	v.BindEnv("verification.ttl", "verification_ttl")
	v.BindEnv("verification.resend_cooldown", "verification_resend_cooldown")

	v.BindEnv("security.min_password_length", "security_min_password_length")
	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	v.BindEnv("mail.enabled", "mail_enabled")
	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.sender_address", "mail_sender_address")
	v.BindEnv("mail.timeout", "mail_timeout")
	v.BindEnv("mail.workers", "mail_workers")
	v.BindEnv("mail.queue_size", "mail_queue_size")
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.site_name", "the community")
	v.SetDefault("app.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "community.db?_foreign_keys=on&_busy_timeout=5000")

	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.cleanup_interval", 24*time.Hour)
	v.SetDefault("session.cookie_name", "session_token")
	v.SetDefault("session.cookie_secure", true)
	v.SetDefault("session.login_path", "/login")
	v.SetDefault("session.forbidden_path", "/forbidden")

	v.SetDefault("verification.ttl", 24*time.Hour)
	v.SetDefault("verification.resend_cooldown", time.Duration(0))

	v.SetDefault("security.min_password_length", 6)
	v.SetDefault("security.rate_limit", 5)

	v.SetDefault("cloudflare.turnstile.enabled", false)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeout", 15*time.Second)
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 64)
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetDuration("session.ttl") <= 0 {
		return errors.New("session.ttl must be bigger than 0")
	}

	if v.GetDuration("verification.ttl") <= 0 {
		return errors.New("verification.ttl must be bigger than 0")
	}

	if v.GetDuration("verification.resend_cooldown") < 0 {
		return errors.New("verification.resend_cooldown can't be negative")
	}

	if v.GetString("session.cookie_name") == "" {
		return errors.New("session.cookie_name can't be empty")
	}

	if v.GetInt("security.min_password_length") < 1 {
		return errors.New("security.min_password_length must be at least 1")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail.host can't be empty")
		}

		if v.GetString("mail.sender_address") == "" {
			return errors.New("mail.sender_address can't be empty")
		}
	} else {
		fmt.Println("[WARNING]: Mail is disabled, emails will only be written to the log")
	}

	if !v.GetBool("cloudflare.turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Some public endpoints won't be guarded against bots")
	} else {
		if v.GetString("cloudflare.turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}
	}

	if !v.GetBool("session.cookie_secure") {
		fmt.Println("[WARNING]: Session cookies are not marked secure, only do this in local development")
	}

	// Verification links point at the public site, derive it from the host
	// settings if it wasn't given explicitly
	if v.GetString("app.base_url") == "" {
		scheme := "http"
		if v.GetBool("host.ssl.enabled") {
			scheme = "https"
		}

		v.Set("app.base_url", fmt.Sprintf("%s://%s", scheme, v.GetString("host.domain")))
	}

	return nil
}
