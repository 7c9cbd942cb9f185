package app

import (
	"bitwise74/community-api/db"
	"bitwise74/community-api/internal"
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/pkg/security"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *linkMailer) SendVerificationEmail(_ context.Context, to, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links[to] = link
	return nil
}

func (m *linkMailer) SendWelcomeEmail(context.Context, string, string) error {
	return nil
}

func (m *linkMailer) token(t *testing.T, to string) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[to]
	require.True(t, ok, "no verification mail sent to %s", to)

	u, err := url.Parse(link)
	require.NoError(t, err)

	return u.Query().Get("token")
}

type testServer struct {
	deps   *internal.Deps
	router *gin.Engine
	mail   *linkMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "app.db") + "?_foreign_keys=on&_busy_timeout=5000")
	require.NoError(t, err)

	mail := &linkMailer{links: map[string]string{}}

	d, err := NewDeps(gdb, Config{
		BaseURL:           "http://localhost:5173",
		SessionTTL:        time.Hour,
		VerificationTTL:   time.Hour,
		MinPasswordLength: 6,
		CookieName:        "session_token",
		LoginPath:         "/login",
		ForbiddenPath:     "/forbidden",
		MailTimeout:       time.Second,
		MailWorkers:       1,
		MailQueueSize:     16,
		Mail:              mail,
		Hasher:            &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		d.MailQueue.Close()

		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &testServer{deps: d, router: NewRouter(d, RouterOptions{}), mail: mail}
}

func (s *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	req.Header.Set("Accept", "application/json")

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == "session_token" && c.Value != "" {
			return c
		}
	}

	t.Fatal("no session cookie set")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do("HEAD", "/api/heartbeat", "").Code)
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/heartbeat", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, s.do("DELETE", "/api/heartbeat", "").Code)
}

func TestNewRouterWithoutOptions(t *testing.T) {
	s := newTestServer(t)

	var r *gin.Engine
	require.NotPanics(t, func() { r = NewRouter(s.deps, RouterOptions{}) })

	req := httptest.NewRequest("GET", "/api/heartbeat", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSOrigins(t *testing.T) {
	s := newTestServer(t)
	r := NewRouter(s.deps, RouterOptions{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest("OPTIONS", "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRoles(t *testing.T) {
	s := newTestServer(t)

	w := s.do("GET", "/api/roles", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Len(t, body["roles"], 3)
	assert.Len(t, body["features"], len(model.Features))
}

func TestAccountFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/api/auth/register", `{"email":"Jane@Example.com","password":"hunter22","name":"Jane"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	w = s.do("POST", "/api/auth/login", `{"email":"jane@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, true, decode(t, w)["canResend"])

	s.deps.Gateway.Wait()
	token := s.mail.token(t, "jane@example.com")

	w = s.do("GET", "/api/auth/verify?token="+url.QueryEscape(token), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do("GET", "/api/auth/verify?token="+url.QueryEscape(token), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("POST", "/api/auth/login", `{"email":"jane@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)

	w = s.do("GET", "/api/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "jane@example.com", me["email"])
	assert.Equal(t, "Member", me["role"])
	assert.Equal(t, true, me["emailVerified"])
	assert.NotContains(t, me, "PasswordHash")

	w = s.do("GET", "/api/admin/blog", "", cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err := s.deps.RoleAdmin.SetRole(context.Background(), "jane@example.com", model.RolePublicRelation)
	require.NoError(t, err)

	// The role is read on every request, the session stays the same
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/admin/blog", "", cookie).Code)
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/admin/schedule", "", cookie).Code)
	assert.Equal(t, http.StatusForbidden, s.do("GET", "/api/admin/invoice", "", cookie).Code)

	w = s.do("POST", "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do("GET", "/api/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authentication required", decode(t, w)["error"])
}

func TestRequireRoleRedirectsBrowsers(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/admin/blacklist", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"invalid email", "/api/auth/register", `{"email":"nope","password":"hunter22","name":"Jane"}`, http.StatusBadRequest},
		{"short password", "/api/auth/register", `{"email":"a@example.com","password":"123","name":"Jane"}`, http.StatusBadRequest},
		{"malformed body", "/api/auth/register", `{"email":`, http.StatusBadRequest},
		{"unknown user", "/api/auth/login", `{"email":"ghost@example.com","password":"hunter22"}`, http.StatusUnauthorized},
		{"resend unknown", "/api/auth/resend", `{"email":"ghost@example.com"}`, http.StatusOK},
		{"verify no token", "/api/auth/verify", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do("POST", tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decode(t, w)["requestID"])
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestServer(t)

	body := `{"email":"dup@example.com","password":"hunter22","name":"Dup"}`
	require.Equal(t, http.StatusCreated, s.do("POST", "/api/auth/register", body).Code)

	w := s.do("POST", "/api/auth/register", strings.Replace(body, "dup@", "DUP@", 1))
	assert.Equal(t, http.StatusConflict, w.Code)
}
