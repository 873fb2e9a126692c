package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTwoFactorCode(t *testing.T) {
	assert.Equal(t, "123456", normalizeTwoFactorCode(" 123 456 "))
	assert.Equal(t, "123456", normalizeTwoFactorCode("123-456"))
	assert.Equal(t, "a1b2c3d4", normalizeTwoFactorCode("a1b2-c3d4"))
}

func TestIsTOTPCode(t *testing.T) {
	assert.True(t, isTOTPCode("000000"))
	assert.False(t, isTOTPCode("12345"))
	assert.False(t, isTOTPCode("1234567"))
	assert.False(t, isTOTPCode("12345a"))
}

func TestBackupCodes_RoundTrip(t *testing.T) {
	codes, err := generateBackupCodes()
	require.NoError(t, err)
	require.Len(t, codes, backupCodeCount)

	encoded, err := encodeBackupCodes(codes)
	require.NoError(t, err)

	// only digests are stored
	for _, code := range codes {
		assert.NotContains(t, encoded, code)
	}

	ok, remaining, err := consumeBackupCode(&encoded, codes[3])
	require.NoError(t, err)
	require.True(t, ok)

	var digests []string
	require.NoError(t, json.Unmarshal([]byte(remaining), &digests))
	assert.Len(t, digests, backupCodeCount-1)

	// the same code cannot be consumed twice
	ok, _, err = consumeBackupCode(&remaining, codes[3])
	require.NoError(t, err)
	assert.False(t, ok)

	// the others survive
	ok, _, err = consumeBackupCode(&remaining, codes[0])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConsumeBackupCode_Unknown(t *testing.T) {
	encoded, err := encodeBackupCodes([]string{"aabbccdd"})
	require.NoError(t, err)

	ok, _, err := consumeBackupCode(&encoded, "11223344")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = consumeBackupCode(nil, "11223344")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemainingBackupCodes(t *testing.T) {
	assert.Zero(t, remainingBackupCodes(nil))

	encoded, err := encodeBackupCodes([]string{"aabbccdd", "11223344"})
	require.NoError(t, err)
	assert.Equal(t, 2, remainingBackupCodes(&encoded))
}

func TestTempTwoFactorToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateTempTwoFactorToken(7)
	require.NoError(t, err)

	userID, err := svc.VerifyTempTwoFactorToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)

	// an access token is not a 2fa token
	access, _, err := svc.GenerateAccessToken("admin", 7, "admin")
	require.NoError(t, err)
	_, err = svc.VerifyTempTwoFactorToken(access)
	assert.Error(t, err)
}
