package cryptoutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFromPassword_Success(t *testing.T) {
	hash, err := GenerateFromPassword("gallery-secret-123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.Contains(t, hash, "$v=")
	assert.Contains(t, hash, "$m=")
	assert.Contains(t, hash, ",t=")
	assert.Contains(t, hash, ",p=")
}

// Same password must hash differently every time (random salt).
func TestGenerateFromPassword_DifferentHashes(t *testing.T) {
	hash1, err := GenerateFromPassword("samepassword123")
	require.NoError(t, err)

	hash2, err := GenerateFromPassword("samepassword123")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestComparePasswordAndHash_Success(t *testing.T) {
	hash, err := GenerateFromPassword("correctpassword123")
	require.NoError(t, err)

	match, err := ComparePasswordAndHash("correctpassword123", hash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestComparePasswordAndHash_WrongPassword(t *testing.T) {
	hash, err := GenerateFromPassword("correctpassword123")
	require.NoError(t, err)

	match, err := ComparePasswordAndHash("wrongpassword123", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestComparePasswordAndHash_InvalidFormat(t *testing.T) {
	invalidHashes := []string{
		"",
		"invalid",
		"$argon2i$v=19$m=65536,t=2,p=4$salt$hash", // wrong algorithm
		"$argon2id$v=19$m=65536,t=2,p=4$",         // missing parts
		"$argon2id$v=19$m=65536,t=2,p=4$salt",     // missing hash
	}

	for _, hash := range invalidHashes {
		match, err := ComparePasswordAndHash("password", hash)
		assert.Error(t, err, "hash: %s", hash)
		assert.False(t, match, "hash: %s", hash)
	}
}
