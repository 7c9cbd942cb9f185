package service

import (
	"bitwise74/community-api/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCleanup(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.verifiedUser(t, "a@x.com", "secret1", "Ann")
	_, err := f.gw.Register(ctx, "b@x.com", "secret1", "Bob")
	require.NoError(t, err)

	_, err = f.gw.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	f.clock.Advance(DefaultSessionTTL)

	sm := NewSessionManager(f.sessions, 0, f.clock.Now)
	vs := NewVerificationService(f.users, 0, f.clock.Now)

	StartCleanup(ctx, 10*time.Millisecond, map[string]Cleaner{
		"sessions":            sm,
		"verification_tokens": vs,
	})

	assert.Eventually(t, func() bool {
		var sessions, tokens int64
		f.db.Model(&model.Session{}).Count(&sessions)
		f.db.Model(&model.User{}).Where("verification_token IS NOT NULL").Count(&tokens)

		return sessions == 0 && tokens == 0
	}, 2*time.Second, 20*time.Millisecond)
}
