package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))

	sealed, err := Encrypt([]byte("app password 1234"), key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "app password")

	plain, err := Decrypt(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "app password 1234", plain)

	again, err := Encrypt([]byte("app password 1234"), key)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")
}

func TestDecryptRejectsBadInput(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))

	_, err := Decrypt("not base64!!", key)
	assert.Error(t, err)

	_, err = Decrypt("AAAA", key)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	sealed, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)
	_, err = Decrypt(sealed, []byte(strings.Repeat("x", 32)))
	assert.Error(t, err)
}

func TestEncryptRejectsShortKey(t *testing.T) {
	_, err := Encrypt([]byte("secret"), []byte("short"))
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("signing-secret", "42", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("signing-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)

	_, err = ValidateToken("other-secret", token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("signing-secret", "42", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("signing-secret", token)
	assert.Error(t, err)
}

func TestGenerateTokenRequiresUser(t *testing.T) {
	_, err := GenerateToken("signing-secret", "", time.Hour)
	assert.Error(t, err)
}
