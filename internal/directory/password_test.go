package directory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "{SSHA}"))
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}

func TestHashPassword_SaltedHashesDiffer(t *testing.T) {
	first, err := HashPassword("hunter2")
	require.NoError(t, err)
	second, err := HashPassword("hunter2")
	require.NoError(t, err)

	// A fresh random salt per hash; both still verify.
	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "hunter2"))
	assert.True(t, VerifyPassword(second, "hunter2"))
}

func TestVerifyPassword_RejectsMalformedHashes(t *testing.T) {
	assert.False(t, VerifyPassword("", "hunter2"))
	assert.False(t, VerifyPassword("hunter2", "hunter2"))
	assert.False(t, VerifyPassword("{SSHA}not-base64!!!", "hunter2"))
	assert.False(t, VerifyPassword("{SSHA}YWJj", "hunter2")) // too short for digest+salt
}

func TestRandomPassword(t *testing.T) {
	password, err := RandomPassword(DefaultPasswordLength)
	require.NoError(t, err)
	assert.Len(t, password, DefaultPasswordLength)

	for _, r := range password {
		assert.Contains(t, passwordAlphabet, string(r))
	}
}

func TestRandomPassword_Varies(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		password, err := RandomPassword(DefaultPasswordLength)
		require.NoError(t, err)
		seen[password] = true
	}
	assert.Greater(t, len(seen), 1)
}
