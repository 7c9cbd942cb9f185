package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastArgon() *ArgonHash {
	return &ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgonHash_RoundTrip(t *testing.T) {
	a := fastArgon()

	encoded, err := a.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := a.Compare("secret1", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Compare("secret2", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonHash_SaltDiffers(t *testing.T) {
	a := fastArgon()

	h1, err := a.Hash("same")
	require.NoError(t, err)
	h2, err := a.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonHash_ParamsComeFromHash(t *testing.T) {
	encoded, err := fastArgon().Hash("pw")
	require.NoError(t, err)

	// A hasher configured differently must still verify older hashes
	ok, err := New().Compare("pw", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgonHash_Bcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("oldpass"), bcrypt.MinCost)
	require.NoError(t, err)

	a := fastArgon()

	ok, err := a.Compare("oldpass", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Compare("nope", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonHash_InvalidHash(t *testing.T) {
	a := fastArgon()

	tests := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	}

	for _, h := range tests {
		ok, err := a.Compare("pw", h)
		assert.Error(t, err, h)
		assert.False(t, ok, h)
	}
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(TokenSize)
	require.NoError(t, err)
	assert.Len(t, tok, TokenSize*2)

	other, err := GenerateToken(TokenSize)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)

	_, err = GenerateToken(8)
	assert.ErrorIs(t, err, ErrTokenSize)
}
