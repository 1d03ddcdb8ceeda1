package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAssertionStoreContract runs a suite of tests to verify that an
// AssertionStore implementation adheres to the defined interface contract.
// sample and updated must be distinct values of the same assertion type.
func RunAssertionStoreContract(t *testing.T, store AssertionStore, sample, updated domain.Assertion) {
	ctx := context.Background()
	id := "contract-test-assertion-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, id, sample)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sample.Kind(), loaded.Kind())
		assert.Equal(t, sample, loaded)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, sample))
		require.NoError(t, store.Save(ctx, id, updated))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, updated, loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrAssertionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, id, sample)
		require.NoError(t, err)

		err = store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrAssertionNotFound, "Load after Delete should return ErrAssertionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, sample)
		_ = store.Save(ctx, id2, updated)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
