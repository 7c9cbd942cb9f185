package service

import (
	"bitwise74/community-api/internal/model"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenSessions fails every lookup like an unreachable database would
type brokenSessions struct {
	SessionStore
}

func (brokenSessions) FindUser(context.Context, string, time.Time) (*model.User, error) {
	return nil, errors.New("database is locked")
}

func TestAuthenticateWithoutSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "unknown"} {
		res, err := f.gate.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Nil(t, res.User)

		_, err = f.gate.RequireRole(ctx, token, model.RoleAdmin)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}
}

func TestRequireRoleMatrix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tokens := map[model.Role]string{}
	for _, r := range model.Roles {
		email := strings.ToLower(string(r)) + "@x.com"
		f.verifiedUser(t, email, "secret1", string(r))

		if r != model.RoleMember {
			_, err := f.admin.SetRole(ctx, email, r)
			require.NoError(t, err)
		}

		login, err := f.gw.Login(ctx, email, "secret1")
		require.NoError(t, err)
		tokens[r] = login.Session.Token
	}

	tests := []struct {
		feature model.Feature
		allowed map[model.Role]bool
	}{
		{model.FeatureBlacklist, map[model.Role]bool{model.RoleAdmin: true}},
		{model.FeatureBlog, map[model.Role]bool{model.RoleAdmin: true, model.RolePublicRelation: true}},
		{model.FeatureInvoice, map[model.Role]bool{model.RoleAdmin: true}},
		{model.FeatureSchedule, map[model.Role]bool{model.RoleAdmin: true, model.RolePublicRelation: true}},
	}

	for _, tt := range tests {
		for role, token := range tokens {
			_, err := f.gate.RequireRole(ctx, token, tt.feature.AllowedRoles()...)
			if tt.allowed[role] {
				assert.NoError(t, err, "%s on %s", role, tt.feature)
			} else {
				assert.ErrorIs(t, err, ErrUnauthorized, "%s on %s", role, tt.feature)
			}
		}
	}

	_, err := f.gate.RequireRole(ctx, tokens[model.RoleAdmin])
	assert.ErrorIs(t, err, ErrUnauthorized, "an empty allow list admits nobody")
}

func TestAuthenticateStoreFailure(t *testing.T) {
	gate := NewGate(NewSessionManager(brokenSessions{}, 0, nil))

	res, err := gate.Authenticate(context.Background(), "token")
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrStoreFailure)
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.NotContains(t, err.Error(), "locked")
	assert.Contains(t, Detail(err), "database is locked")

	_, err = gate.RequireRole(context.Background(), "token", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrStoreFailure)
}
