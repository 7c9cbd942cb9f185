package security

import (
	"encoding/hex"
	"errors"
)

// TokenSize is the amount of random bytes behind every session and
// verification token
const TokenSize = 32

var ErrTokenSize = errors.New("token size must be at least 16 bytes")

// GenerateToken returns n bytes from crypto/rand, hex encoded
func GenerateToken(n int) (string, error) {
	if n < 16 {
		return "", ErrTokenSize
	}

	b, err := genRandByt(uint32(n))
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
