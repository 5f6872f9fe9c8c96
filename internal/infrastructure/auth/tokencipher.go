package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenCipher produces opaque bearer tokens: AES-GCM over a UTF-8 string,
// with the random nonce appended after the ciphertext and the whole value
// base64 encoded. The URL-safe variant backs values embedded in links. A
// value decrypted with the wrong key fails the GCM authentication check, so
// it can never silently decode to a different plaintext.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher builds a cipher from a 16, 24 or 32 byte AES key.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid token cipher key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build AEAD: %w", err)
	}
	return &TokenCipher{aead: aead}, nil
}

func (c *TokenCipher) seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// ciphertext first, nonce appended after
	return append(sealed, nonce...), nil
}

func (c *TokenCipher) open(raw []byte) (string, error) {
	n := c.aead.NonceSize()
	if len(raw) <= n {
		return "", fmt.Errorf("token too short")
	}
	sealed, nonce := raw[:len(raw)-n], raw[len(raw)-n:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return string(plaintext), nil
}

// Encrypt returns the standard-base64 form of the sealed value.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	raw, err := c.seal(plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decrypt reverses Encrypt.
func (c *TokenCipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return c.open(raw)
}

// EncryptURLSafe returns the URL-safe-base64 form for values placed in URLs.
func (c *TokenCipher) EncryptURLSafe(plaintext string) (string, error) {
	raw, err := c.seal(plaintext)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecryptURLSafe reverses EncryptURLSafe.
func (c *TokenCipher) DecryptURLSafe(encoded string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return c.open(raw)
}
