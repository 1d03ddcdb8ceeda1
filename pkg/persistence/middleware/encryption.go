package middleware

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// sealed is the stored form: the kind stays readable for operators, the
// payload does not.
type sealed struct {
	Kind       domain.Kind `json:"kind"`
	Ciphertext []byte      `json:"sealed"`
}

type encryptionCodec struct {
	next   ports.AssertionCodec
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts encoded
// assertions using AES-GCM.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, &domain.ConfigurationError{Component: "encryption", Reason: "active key must be 32 bytes (AES-256)"}
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, &domain.ConfigurationError{Component: "encryption", Reason: fmt.Sprintf("fallback key %d must be 32 bytes", i)}
		}
	}
	return func(next ports.AssertionCodec) ports.AssertionCodec {
		return &encryptionCodec{next: next, config: config}
	}, nil
}

func (c *encryptionCodec) Encode(a domain.Assertion) ([]byte, error) {
	plainText, err := c.next.Encode(a)
	if err != nil {
		return nil, err
	}
	ciphertext, err := encrypt(plainText, c.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt assertion: %w", err)
	}
	return json.Marshal(sealed{Kind: a.Kind(), Ciphertext: ciphertext})
}

func (c *encryptionCodec) Decode(data []byte) (domain.Assertion, error) {
	var env sealed
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to read sealed assertion: %w", err)
	}
	// Fail closed on plain payloads.
	if len(env.Ciphertext) == 0 {
		return nil, errors.New("assertion is missing its sealed payload")
	}

	plainText, err := decryptWithRotation(env.Ciphertext, c.config.ActiveKey, c.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt assertion: %w", err)
	}
	return c.next.Decode(plainText)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
