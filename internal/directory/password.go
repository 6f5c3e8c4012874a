package directory

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SSHA is the credential format the directory expects
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

const (
	// sshaPrefix tags the salted-SHA1 credential format understood by
	// the directory service.
	sshaPrefix = "{SSHA}"

	saltSize = 4

	// DefaultPasswordLength is the length of generated initial
	// passwords. They are meant to be changed on first login.
	DefaultPasswordLength = 8

	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// HashPassword hashes a password in the SSHA format: a SHA1 digest of
// password+salt, followed by the salt, url-safe base64 encoded.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	h := sha1.New() //nolint:gosec
	h.Write([]byte(password))
	h.Write(salt)

	return sshaPrefix + base64.URLEncoding.EncodeToString(append(h.Sum(nil), salt...)), nil
}

// VerifyPassword re-derives the digest using the salt embedded in an
// SSHA credential and compares it against the stored digest.
func VerifyPassword(hash, password string) bool {
	if !strings.HasPrefix(hash, sshaPrefix) {
		return false
	}

	raw, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(hash, sshaPrefix))
	if err != nil || len(raw) <= sha1.Size {
		return false
	}

	digest, salt := raw[:sha1.Size], raw[sha1.Size:]

	h := sha1.New() //nolint:gosec
	h.Write([]byte(password))
	h.Write(salt)

	return subtle.ConstantTimeCompare(digest, h.Sum(nil)) == 1
}

// RandomPassword generates a random password of the given length
// drawn uniformly from letters and digits.
func RandomPassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}

	alphabet := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
