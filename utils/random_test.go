package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomToken_Success(t *testing.T) {
	token, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestGenerateRandomToken_Uniqueness(t *testing.T) {
	const numTokens = 100
	tokens := make(map[string]bool)

	for i := 0; i < numTokens; i++ {
		token, err := GenerateRandomToken(32)
		require.NoError(t, err)
		if tokens[token] {
			t.Errorf("Duplicate token generated: %s", token)
		}
		tokens[token] = true
	}

	assert.Equal(t, numTokens, len(tokens))
}

func TestGenerateShareToken_URLSafe(t *testing.T) {
	token, err := GenerateShareToken()
	require.NoError(t, err)

	// Share tokens live in a path segment: no padding, no reserved chars
	assert.Regexp(t, "^[A-Za-z0-9_-]+$", token)
	assert.NotContains(t, token, "=")
	assert.Len(t, token, 43) // 32 bytes, unpadded base64url
}

func TestGenerateShareToken_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateShareToken()
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
