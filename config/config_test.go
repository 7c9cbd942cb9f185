package config

import (
	"testing"
	"time"

	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()

	v.Reset()
	setDefaults()
	t.Cleanup(v.Reset)
}

func TestDefaultsAreValid(t *testing.T) {
	resetConfig(t)

	require.NoError(t, validate())
	assert.Equal(t, "http://localhost", v.GetString("app.base_url"))
	assert.Equal(t, 30*24*time.Hour, v.GetDuration("session.ttl"))
	assert.Equal(t, 24*time.Hour, v.GetDuration("verification.ttl"))
	assert.Equal(t, 6, v.GetInt("security.min_password_length"))
	assert.True(t, v.GetBool("session.cookie_secure"))
	assert.Equal(t, "session_token", v.GetString("session.cookie_name"))
}

func TestBaseURLFromSSL(t *testing.T) {
	resetConfig(t)

	v.Set("host.domain", "example.com")
	v.Set("host.ssl.enabled", true)
	v.Set("host.ssl.certificate_path", "cert.pem")
	v.Set("host.ssl.certificate_key_path", "key.pem")

	require.NoError(t, validate())
	assert.Equal(t, "https://example.com", v.GetString("app.base_url"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"log level", "app.log_level", "loud"},
		{"port", "host.port", 0},
		{"driver", "db.driver", "mysql"},
		{"dsn", "db.dsn", ""},
		{"session ttl", "session.ttl", time.Duration(0)},
		{"verification ttl", "verification.ttl", -time.Hour},
		{"cooldown", "verification.resend_cooldown", -time.Minute},
		{"cookie name", "session.cookie_name", ""},
		{"password length", "security.min_password_length", 0},
		{"ssl without cert", "host.ssl.enabled", true},
		{"mail without host", "mail.enabled", true},
		{"turnstile without secret", "cloudflare.turnstile.enabled", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			v.Set(tt.key, tt.value)

			assert.Error(t, validate())
		})
	}
}

func TestParseSetRole(t *testing.T) {
	email, role, err := ParseSetRole(" a@x.com = Admin ")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
	assert.Equal(t, "Admin", role)

	for _, bad := range []string{"", "a@x.com", "=Admin", "a@x.com="} {
		_, _, err := ParseSetRole(bad)
		assert.Error(t, err, bad)
	}
}
