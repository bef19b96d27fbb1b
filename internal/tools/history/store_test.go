package history

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAppendNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, KeyQR, map[string]string{"content": "one"}))
	require.NoError(t, s.Append(ctx, KeyQR, map[string]string{"content": "two"}))

	entries, err := s.List(ctx, KeyQR)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var first map[string]string
	require.NoError(t, json.Unmarshal(entries[0], &first))
	require.Equal(t, "two", first["content"])
}

func TestMemoryStoreTrimsToCapacity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < maxEntries+10; i++ {
		require.NoError(t, s.Append(ctx, KeyShortener, map[string]int{"n": i}))
	}

	entries, err := s.List(ctx, KeyShortener)
	require.NoError(t, err)
	require.Len(t, entries, maxEntries)

	// The newest entry survives; the oldest were dropped.
	var newest map[string]int
	require.NoError(t, json.Unmarshal(entries[0], &newest))
	require.Equal(t, maxEntries+9, newest["n"])
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, KeyQR, "qr-entry"))
	require.NoError(t, s.Append(ctx, KeyShortener, "link-entry"))

	require.NoError(t, s.Clear(ctx, KeyQR))

	qr, err := s.List(ctx, KeyQR)
	require.NoError(t, err)
	require.Empty(t, qr)

	links, err := s.List(ctx, KeyShortener)
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestMemoryStoreListReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, KeyQR, fmt.Sprintf("entry-%d", 1)))

	entries, _ := s.List(ctx, KeyQR)
	entries[0] = json.RawMessage(`"mutated"`)

	fresh, _ := s.List(ctx, KeyQR)
	require.JSONEq(t, `"entry-1"`, string(fresh[0]))
}
