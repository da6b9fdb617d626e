package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// SecretKeyChars is the alphabet used for generated signing keys
const SecretKeyChars = "abcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*(-_=+)"

// SecretKeyLength is the default generated key length
const SecretKeyLength = 50

// GenerateSecretKey returns a random key of the given length drawn uniformly from SecretKeyChars
func GenerateSecretKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid secret key length: %d", length)
	}

	limit := big.NewInt(int64(len(SecretKeyChars)))
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		builder.WriteByte(SecretKeyChars[n.Int64()])
	}
	return builder.String(), nil
}
