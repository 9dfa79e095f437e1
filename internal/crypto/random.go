package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// TokenLength is the length of every generated code and token value.
const TokenLength = 60

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxByte is the largest multiple of len(charset) that fits in a byte.
// Random bytes at or above it are rejected so every character is equally likely.
const maxByte = 256 - (256 % len(charset))

// RandomString returns a cryptographically secure alphanumeric string.
func RandomString(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// Fingerprint returns a short, stable digest of a secret value that is safe to log.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}

	sum := blake2b.Sum256([]byte(secret))

	return hex.EncodeToString(sum[:6])
}
