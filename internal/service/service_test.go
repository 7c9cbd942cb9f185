package service

import (
	"bitwise74/community-api/db"
	"bitwise74/community-api/internal/store"
	"bitwise74/community-api/pkg/security"
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type sentMail struct {
	Kind string
	To   string
	Name string
	Link string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, name, link string) error {
	return m.record(sentMail{Kind: "verification", To: to, Name: name, Link: link})
}

func (m *recordingMailer) SendWelcomeEmail(_ context.Context, to, name string) error {
	return m.record(sentMail{Kind: "welcome", To: to, Name: name})
}

func (m *recordingMailer) record(s sentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, s)
	return nil
}

func (m *recordingMailer) byKind(kind string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []sentMail
	for _, s := range m.sent {
		if s.Kind == kind {
			out = append(out, s)
		}
	}

	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type fixture struct {
	db       *gorm.DB
	users    *store.UserStore
	sessions *store.SessionStore
	mail     *recordingMailer
	clock    *fakeClock
	logs     *observer.ObservedLogs
	gw       *Gateway
	gate     *Gate
	admin    *RoleAdmin
}

func fastArgon() *security.ArgonHash {
	return &security.ArgonHash{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newFixture(t *testing.T, opts ...func(*GatewayConfig)) *fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "auth.db") + "?_foreign_keys=on&_busy_timeout=5000"
	gdb, err := db.OpenSQLite(dsn)
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	f := &fixture{
		db:       gdb,
		users:    store.NewUserStore(gdb),
		sessions: store.NewSessionStore(gdb),
		mail:     &recordingMailer{},
		clock:    &fakeClock{t: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)},
		logs:     logs,
	}

	sm := NewSessionManager(f.sessions, 0, f.clock.Now)

	queue := NewMailQueue(16, 1, time.Second, log)
	queue.StartWorkerPool()

	c := GatewayConfig{
		Users:        f.users,
		Verification: NewVerificationService(f.users, 0, f.clock.Now),
		Sessions:     sm,
		Hasher:       fastArgon(),
		Mail:         f.mail,
		Queue:        queue,
		BaseURL:      "https://example.com/",
		Logger:       log,
		Clock:        f.clock.Now,
	}

	for _, o := range opts {
		o(&c)
	}

	f.gw, err = NewGateway(c)
	require.NoError(t, err)

	f.gate = NewGate(sm)
	f.admin = NewRoleAdmin(f.users, log)

	t.Cleanup(func() {
		queue.Close()

		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return f
}

// lastToken returns the token from the newest verification mail sent to to
func (f *fixture) lastToken(t *testing.T, to string) string {
	t.Helper()

	f.gw.Wait()

	var link string
	for _, s := range f.mail.byKind("verification") {
		if s.To == to {
			link = s.Link
		}
	}
	require.NotEmpty(t, link, "no verification mail sent to %s", to)

	u, err := url.Parse(link)
	require.NoError(t, err)

	return u.Query().Get("token")
}

// verifiedUser registers email and consumes its verification token
func (f *fixture) verifiedUser(t *testing.T, email, password, name string) {
	t.Helper()

	_, err := f.gw.Register(context.Background(), email, password, name)
	require.NoError(t, err)
	require.NoError(t, f.gw.Verify(context.Background(), f.lastToken(t, email)))
}
