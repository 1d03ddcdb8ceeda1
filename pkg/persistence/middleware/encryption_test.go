package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/policydesk/pkg/adapters/memory"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	codec := mw(assertions.JSONCodec{})

	original := &assertions.HTTPRouting{URL: "https://svc", Connection: "vault-prod"}
	data, err := codec.Encode(original)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "vault-prod")
	assert.Contains(t, string(data), `"kind":"http-routing"`)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncryptionMiddleware_Store(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	store := memory.NewStore(mw(assertions.JSONCodec{}))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "0.1", &assertions.HTTPRouting{URL: "https://svc"}))
	loaded, err := store.Load(ctx, "0.1")
	require.NoError(t, err)
	assert.Equal(t, "https://svc", loaded.(*assertions.HTTPRouting).URL)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	oldKey, newKey := generateKey(t), generateKey(t)

	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	oldCodec := mwOld(assertions.JSONCodec{})

	data, err := oldCodec.Encode(&assertions.HTTPRouting{URL: "https://old"})
	require.NoError(t, err)

	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	newCodec := mwNew(assertions.JSONCodec{})

	decoded, err := newCodec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "https://old", decoded.(*assertions.HTTPRouting).URL)

	// Re-encoding uses the new key only.
	data, err = newCodec.Encode(decoded)
	require.NoError(t, err)
	_, err = oldCodec.Decode(data)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainPayload(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	_, err = mw(assertions.JSONCodec{}).Decode([]byte(`{"kind":"http-routing","data":{"url":"x"}}`))
	assert.Error(t, err)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
