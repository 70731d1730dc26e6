package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidCiphertext is returned for input that Encrypt did not produce
// with the current key.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

const sealVersion = "v1."

// EncryptionService seals gateway secrets (API keys) with AES-GCM.
// Output format: "v1." + base64url(nonce || ciphertext).
type EncryptionService struct {
	gcm cipher.AEAD
}

// NewEncryptionService accepts a raw 16, 24 or 32 byte key, or the same
// key base64 encoded (as generated by `openssl rand -base64 32`).
func NewEncryptionService(key string) (*EncryptionService, error) {
	k, err := parseKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &EncryptionService{gcm: gcm}, nil
}

func validKeyLen(n int) bool { return n == 16 || n == 24 || n == 32 }

func parseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if validKeyLen(len(key)) {
		return []byte(key), nil
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && validKeyLen(len(b)) {
		return b, nil
	}
	return nil, fmt.Errorf("encryption key must be 16, 24 or 32 bytes (raw or base64); got %d", len(key))
}

func (e *EncryptionService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	ct := e.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealVersion + base64.RawURLEncoding.EncodeToString(ct), nil
}

func (e *EncryptionService) Decrypt(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealVersion) {
		return "", fmt.Errorf("%w: unknown format", ErrInvalidCiphertext)
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, sealVersion))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	ns := e.gcm.NonceSize()
	if len(data) < ns+e.gcm.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}
	pt, err := e.gcm.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return string(pt), nil
}
