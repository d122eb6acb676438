package sidemap_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/sidemap"
)

func TestNoneCacheAlwaysMisses(t *testing.T) {
	c := sidemap.NewNoneCache()
	require.NoError(t, c.Put(sidemap.Entry{ChunkNumber: 1, Offset: 10}))
	_, ok, err := c.Get(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInMemoryCacheRoundTrip(t *testing.T) {
	c := sidemap.NewInMemoryCache()
	entry := sidemap.Entry{ChunkNumber: 42, Offset: 4096, Size: 1024, Flags: format.ChunkFlagCompression, XxHash: 0xfeed}
	require.NoError(t, c.Put(entry))

	got, ok, err := c.Get(42)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry, got)
}

func TestEmbeddedKVCacheRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sidemap.db")
	c, err := sidemap.NewEmbeddedKVCache(dbPath)
	require.NoError(t, err)
	defer c.Close()

	entry := sidemap.Entry{ChunkNumber: 7, Offset: 128, Size: 64, Flags: format.ChunkFlagDuplicate, DuplicateOf: 3}
	require.NoError(t, c.Put(entry))

	got, ok, err := c.Get(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry, got)

	_, ok, err = c.Get(8)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConvertToNoneKeepsNothing(t *testing.T) {
	mem := sidemap.NewInMemoryCache()
	require.NoError(t, mem.Put(sidemap.Entry{ChunkNumber: 1, Offset: 0}))
	require.NoError(t, mem.Put(sidemap.Entry{ChunkNumber: 2, Offset: 4096}))

	none, err := sidemap.Convert(mem, sidemap.ModeNone, "")
	require.NoError(t, err)

	// Convert puts every entry into the None cache, which keeps none of them; the copy itself is
	// checked by TestConvertToEmbeddedKV.
	entries, err := none.All()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestConvertToEmbeddedKV(t *testing.T) {
	mem := sidemap.NewInMemoryCache()
	require.NoError(t, mem.Put(sidemap.Entry{ChunkNumber: 1, Offset: 0}))
	require.NoError(t, mem.Put(sidemap.Entry{ChunkNumber: 2, Offset: 4096}))

	dbPath := filepath.Join(t.TempDir(), "converted.db")
	kv, err := sidemap.Convert(mem, sidemap.ModeEmbeddedKV, dbPath)
	require.NoError(t, err)
	defer kv.Close()

	entries, err := kv.All()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
