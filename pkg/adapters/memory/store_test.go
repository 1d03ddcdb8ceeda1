package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/policydesk/pkg/adapters/memory"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore(assertions.JSONCodec{})
	ports.RunAssertionStoreContract(t, store,
		&assertions.AddHeader{Name: "X-Trace", Operation: "add"},
		&assertions.AddHeader{Name: "X-Trace", Value: "1", Operation: "replace"},
	)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore(assertions.JSONCodec{})
	ctx := context.Background()

	header := &assertions.AddHeader{Name: "X-Trace", Operation: "add"}
	require.NoError(t, store.Save(ctx, "h", header))
	header.Name = "changed"

	loaded, err := store.Load(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "X-Trace", loaded.(*assertions.AddHeader).Name)
}
