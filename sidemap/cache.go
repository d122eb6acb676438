// Package sidemap implements the chunk side-map preload cache: a strategy pattern over None
// (direct fetch, no caching), InMemory, and Embedded KV
// (go.etcd.io/bbolt) storage, switchable at runtime without discarding already-cached entries.
package sidemap

import "github.com/zetaforensics/zff/format"

// Entry is the side-map information for one chunk, merged from all six per-chunk maps (spec
// §3 "Side-maps").
type Entry struct {
	ChunkNumber uint64
	Segment     uint64 // segment the chunk's payload bytes live in, not the map instance's
	Offset      uint64
	Size        uint64
	Flags       format.ChunkFlags
	XxHash      uint64
	SameByte    byte   // valid iff Flags.Has(format.ChunkFlagSameBytes)
	DuplicateOf uint64 // valid iff Flags.Has(format.ChunkFlagDuplicate)
}

// Cache is the preload strategy interface every mode implements.
type Cache interface {
	// Put records entry, overwriting any prior entry for the same ChunkNumber.
	Put(entry Entry) error
	// Get returns the cached entry for chunkNumber, or ok=false on a cache miss.
	Get(chunkNumber uint64) (entry Entry, ok bool, err error)
	// All returns every cached entry, used when converting between modes.
	All() ([]Entry, error)
	// Close releases any resources the cache holds (a no-op for None/InMemory).
	Close() error
}

// Mode names the three preload strategies.
type Mode int

const (
	ModeNone Mode = iota
	ModeInMemory
	ModeEmbeddedKV
)

// Convert copies every entry in src into a freshly constructed cache of the target mode and
// closes src, so switching preload strategy is idempotent with respect to already-cached
// entries: converting between modes copies entries rather than discarding them.
func Convert(src Cache, target Mode, dbPath string) (Cache, error) {
	entries, err := src.All()
	if err != nil {
		return nil, err
	}

	var dst Cache
	switch target {
	case ModeNone:
		dst = NewNoneCache()
	case ModeInMemory:
		dst = NewInMemoryCache()
	case ModeEmbeddedKV:
		dst, err = NewEmbeddedKVCache(dbPath)
		if err != nil {
			return nil, err
		}
	}

	for _, e := range entries {
		if err := dst.Put(e); err != nil {
			return nil, err
		}
	}
	if err := src.Close(); err != nil {
		return nil, err
	}
	return dst, nil
}
