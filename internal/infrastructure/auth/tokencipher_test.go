package auth

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	cipher, err := NewTokenCipher(testKey())
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"uuid", "7f8a2c1e-9d3b-4f6a-8e2d-1c5b9a7e3f0d"},
		{"empty", ""},
		{"unicode", "こんにちは"},
		{"long", strings.Repeat("x", 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := cipher.Encrypt(tt.plaintext)
			require.NoError(t, err)

			decoded, err := cipher.Decrypt(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decoded)
		})
	}
}

func TestTokenCipher_URLSafeRoundTrip(t *testing.T) {
	cipher, err := NewTokenCipher(testKey())
	require.NoError(t, err)

	encoded, err := cipher.EncryptURLSafe("event-uuid-1234")
	require.NoError(t, err)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")

	decoded, err := cipher.DecryptURLSafe(encoded)
	require.NoError(t, err)
	assert.Equal(t, "event-uuid-1234", decoded)
}

func TestTokenCipher_WrongKeyFailsClosed(t *testing.T) {
	cipher1, err := NewTokenCipher(testKey())
	require.NoError(t, err)
	cipher2, err := NewTokenCipher([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	encoded, err := cipher1.Encrypt("secret-value")
	require.NoError(t, err)

	_, err = cipher2.Decrypt(encoded)
	require.Error(t, err, "wrong key must error, never yield a different plaintext")
}

func TestTokenCipher_TamperedCiphertextFails(t *testing.T) {
	cipher, err := NewTokenCipher(testKey())
	require.NoError(t, err)

	encoded, err := cipher.Encrypt("secret-value")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	raw[0] ^= 0x01

	_, err = cipher.Decrypt(base64.StdEncoding.EncodeToString(raw))
	require.Error(t, err)
}

func TestTokenCipher_GarbageInputFails(t *testing.T) {
	cipher, err := NewTokenCipher(testKey())
	require.NoError(t, err)

	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "!!not-base64!!"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("abc"))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cipher.Decrypt(tt.encoded)
			require.Error(t, err)
		})
	}
}

func TestNewTokenCipher_RejectsBadKeyLength(t *testing.T) {
	_, err := NewTokenCipher([]byte("short"))
	require.Error(t, err)
}

func TestTokenCipher_NonDeterministic(t *testing.T) {
	cipher, err := NewTokenCipher(testKey())
	require.NoError(t, err)

	a, err := cipher.Encrypt("same-value")
	require.NoError(t, err)
	b, err := cipher.Encrypt("same-value")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh nonce per encryption")
}
