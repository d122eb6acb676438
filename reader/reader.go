package reader

import (
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/internal/log"
	"github.com/zetaforensics/zff/internal/options"
	"github.com/zetaforensics/zff/sidemap"
	"github.com/zetaforensics/zff/zfferr"
)

// Mode re-exports sidemap.Mode so callers configuring a Reader don't need a second import.
type Mode = sidemap.Mode

// Config holds the reader-wide options a Reader accepts at construction time.
type Config struct {
	CacheMode   Mode
	CacheDBPath string // only meaningful when CacheMode == sidemap.ModeEmbeddedKV
}

// Option configures a Config via the module's generic functional-options pattern.
type Option = options.Option[*Config]

// WithCacheMode selects the side-map preload caching strategy; the default is
// sidemap.ModeNone.
func WithCacheMode(mode Mode) Option {
	return options.NoError(func(c *Config) { c.CacheMode = mode })
}

// WithCacheDBPath sets the bbolt database path used when CacheMode is sidemap.ModeEmbeddedKV.
func WithCacheDBPath(path string) Option {
	return options.NoError(func(c *Config) { c.CacheDBPath = path })
}

// Reader is the top-level random-access reader. It owns an ordered sequence of segment
// Sources (segment 1 first), the container-global MainFooter discovered from the last one,
// and a lazily-populated set of per-segment SegmentFooters.
type Reader struct {
	sources []Source
	logger  *log.Logger

	mainFooter *footer.MainFooter
	segFooters map[uint64]*footer.SegmentFooter

	cache sidemap.Cache

	// Side-map instance indexes, each a sorted view over the matching MainFooter map built
	// once at Open time so GetChunk's instance lookups run in O(log S) instead of scanning
	// the container-wide map directly.
	offsetIndex    chunkIndex
	sizeIndex      chunkIndex
	flagsIndex     chunkIndex
	xxHashIndex    chunkIndex
	sameBytesIndex chunkIndex
	dedupIndex     chunkIndex
}

// Open discovers a container's structure across sources (segment 1..N, in order) and prepares
// the chunk side-map preload cache. The MainFooter must be found in the last source; its
// absence means the container is truncated or sources are out of order.
func Open(sources []Source, logger *log.Logger, opts ...Option) (*Reader, error) {
	if len(sources) == 0 {
		return nil, zfferr.New(zfferr.KindMissingSegment)
	}
	cfg := &Config{CacheMode: sidemap.ModeNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}

	lastSegment := uint64(len(sources))
	segFooter, afterFooter, err := readSegmentFooter(sources[lastSegment-1])
	if err != nil {
		return nil, err
	}
	mainFooter, err := readMainFooter(sources[lastSegment-1], afterFooter)
	if err != nil {
		return nil, err
	}
	if mainFooter == nil {
		return nil, zfferr.New(zfferr.KindMissingMainFooter)
	}

	var cache sidemap.Cache
	switch cfg.CacheMode {
	case sidemap.ModeEmbeddedKV:
		cache, err = sidemap.NewEmbeddedKVCache(cfg.CacheDBPath)
	case sidemap.ModeInMemory:
		cache = sidemap.NewInMemoryCache()
	default:
		cache = sidemap.NewNoneCache()
	}
	if err != nil {
		return nil, err
	}

	r := &Reader{
		sources:        sources,
		logger:         logger,
		mainFooter:     mainFooter,
		segFooters:     map[uint64]*footer.SegmentFooter{lastSegment: segFooter},
		cache:          cache,
		offsetIndex:    newChunkIndex(mainFooter.ChunkOffsetMapIndex),
		sizeIndex:      newChunkIndex(mainFooter.ChunkSizeMapIndex),
		flagsIndex:     newChunkIndex(mainFooter.ChunkFlagsMapIndex),
		xxHashIndex:    newChunkIndex(mainFooter.ChunkXxHashMapIndex),
		sameBytesIndex: newChunkIndex(mainFooter.ChunkSameBytesMapIndex),
		dedupIndex:     newChunkIndex(mainFooter.ChunkDedupMapIndex),
	}
	r.logger.Debug().Int("segments", len(sources)).Msg("container opened")
	return r, nil
}

// SetCacheMode converts the reader's side-map cache to mode, preserving already-cached
// entries.
func (r *Reader) SetCacheMode(mode Mode, dbPath string) error {
	cache, err := sidemap.Convert(r.cache, mode, dbPath)
	if err != nil {
		return err
	}
	r.cache = cache
	return nil
}

// NumberOfSegments reports how many segment files make up the container.
func (r *Reader) NumberOfSegments() uint64 { return r.mainFooter.NumberOfSegments }

// ObjectNumbers returns every object number present in the container, derived from the
// MainFooter's header index (every object has exactly one ObjectHeader).
func (r *Reader) ObjectNumbers() []uint64 {
	out := make([]uint64, 0, len(r.mainFooter.ObjectHeaderSegments))
	for n := range r.mainFooter.ObjectHeaderSegments {
		out = append(out, n)
	}
	return out
}

// DescriptionNotes returns the MainFooter's free-text acquisition notes.
func (r *Reader) DescriptionNotes() string { return r.mainFooter.DescriptionNotes }

// ObjectHeader decodes objectNumber's ObjectHeader without opening a typed object reader,
// so a caller can inspect object_type/chunk_size before deciding how to open it. No password is
// given, so for an encrypted object it fails with zfferr.KindMissingEncryptionKey.
func (r *Reader) ObjectHeader(objectNumber uint64) (*header.ObjectHeader, error) {
	oh, _, err := r.readObjectHeader(objectNumber, nil)
	return oh, err
}

func (r *Reader) source(n uint64) (Source, error) {
	if n == 0 || n > uint64(len(r.sources)) {
		return nil, zfferr.Newf(zfferr.KindMissingSegment, "segment %d is not available", n)
	}
	return r.sources[n-1], nil
}

func (r *Reader) segmentFooter(n uint64) (*footer.SegmentFooter, error) {
	if sf, ok := r.segFooters[n]; ok {
		return sf, nil
	}
	src, err := r.source(n)
	if err != nil {
		return nil, err
	}
	sf, _, err := readSegmentFooter(src)
	if err != nil {
		return nil, err
	}
	r.segFooters[n] = sf
	return sf, nil
}

// Close releases the side-map cache's resources (a no-op unless it is backed by an embedded
// KV store). It does not close the caller-supplied Sources.
func (r *Reader) Close() error {
	return r.cache.Close()
}
