package reader

import (
	"github.com/zetaforensics/zff/compress"
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/sidemap"
	"github.com/zetaforensics/zff/zfferr"
)

// ChunkSource resolves chunk payloads by number for one open object, preloading the reader's
// side-map cache as flushed side-map instances are parsed.
type ChunkSource struct {
	r      *Reader
	header *header.ObjectHeader
	dek    []byte

	// loaded tracks chunk numbers this ChunkSource has already resolved against the
	// side-maps, so repeated GetChunk calls don't re-parse map records the preload cache
	// already satisfies. Distinct from the cache itself, which may be shared/persistent
	// (sidemap.ModeEmbeddedKV) and whose zero-value entries are indistinguishable from
	// "not yet loaded".
	loaded map[uint64]bool
}

func newChunkSource(r *Reader, oh *header.ObjectHeader, dek []byte) *ChunkSource {
	return &ChunkSource{r: r, header: oh, dek: dek, loaded: make(map[uint64]bool)}
}

func (c *ChunkSource) mergeEntry(chunkNumber uint64, mutate func(*sidemap.Entry)) error {
	entry, ok, err := c.r.cache.Get(chunkNumber)
	if err != nil {
		return err
	}
	if !ok {
		entry = sidemap.Entry{ChunkNumber: chunkNumber}
	}
	mutate(&entry)
	return c.r.cache.Put(entry)
}

func (c *ChunkSource) loadOffsetMap(chunkNumber uint64) error {
	key, segment, err := c.resolve(c.r.offsetIndex, chunkNumber)
	if err != nil {
		return err
	}
	sf, err := c.r.segmentFooter(segment)
	if err != nil {
		return err
	}
	off, ok := sf.ChunkOffsetMapTable[key]
	if !ok {
		return zfferr.Newf(zfferr.KindInvalidChunkNumber, "segment %d missing offset map instance %d", segment, key)
	}
	src, err := c.r.source(segment)
	if err != nil {
		return err
	}
	b, err := readFullRecord(src, off)
	if err != nil {
		return err
	}
	m, err := c.parseOffsetMap(b, key)
	if err != nil {
		return err
	}
	for i, cn := range m.ChunkNumbers {
		v := m.Offsets[i]
		// The payload offset is local to the same segment the describing map instance was
		// flushed to: maybeRollover always flushes every accumulator before opening the next
		// segment, so a flushed instance's chunk payloads never cross a segment boundary.
		if err := c.mergeEntry(cn, func(e *sidemap.Entry) { e.Offset = v; e.Segment = segment }); err != nil {
			return err
		}
	}
	return nil
}

func (c *ChunkSource) parseOffsetMap(b []byte, lastChunk uint64) (*footer.ChunkOffsetMap, error) {
	if c.header.Encryption != nil {
		return footer.ParseEncryptedChunkOffsetMap(b, c.header.Encryption.Algorithm, c.dek, lastChunk)
	}
	return footer.ParseChunkOffsetMap(b)
}

func (c *ChunkSource) loadSizeMap(chunkNumber uint64) error {
	key, segment, err := c.resolve(c.r.sizeIndex, chunkNumber)
	if err != nil {
		return err
	}
	sf, err := c.r.segmentFooter(segment)
	if err != nil {
		return err
	}
	off, ok := sf.ChunkSizeMapTable[key]
	if !ok {
		return zfferr.Newf(zfferr.KindInvalidChunkNumber, "segment %d missing size map instance %d", segment, key)
	}
	src, err := c.r.source(segment)
	if err != nil {
		return err
	}
	b, err := readFullRecord(src, off)
	if err != nil {
		return err
	}
	var m *footer.ChunkSizeMap
	if c.header.Encryption != nil {
		m, err = footer.ParseEncryptedChunkSizeMap(b, c.header.Encryption.Algorithm, c.dek, key)
	} else {
		m, err = footer.ParseChunkSizeMap(b)
	}
	if err != nil {
		return err
	}
	for i, cn := range m.ChunkNumbers {
		v := m.Sizes[i]
		if err := c.mergeEntry(cn, func(e *sidemap.Entry) { e.Size = v }); err != nil {
			return err
		}
	}
	return nil
}

func (c *ChunkSource) loadFlagsMap(chunkNumber uint64) error {
	key, segment, err := c.resolve(c.r.flagsIndex, chunkNumber)
	if err != nil {
		return err
	}
	sf, err := c.r.segmentFooter(segment)
	if err != nil {
		return err
	}
	off, ok := sf.ChunkFlagsMapTable[key]
	if !ok {
		return zfferr.Newf(zfferr.KindInvalidChunkNumber, "segment %d missing flags map instance %d", segment, key)
	}
	src, err := c.r.source(segment)
	if err != nil {
		return err
	}
	b, err := readFullRecord(src, off)
	if err != nil {
		return err
	}
	var m *footer.ChunkFlagsMap
	if c.header.Encryption != nil {
		m, err = footer.ParseEncryptedChunkFlagsMap(b, c.header.Encryption.Algorithm, c.dek, key)
	} else {
		m, err = footer.ParseChunkFlagsMap(b)
	}
	if err != nil {
		return err
	}
	for i, cn := range m.ChunkNumbers {
		v := m.Flags[i]
		if err := c.mergeEntry(cn, func(e *sidemap.Entry) { e.Flags = v }); err != nil {
			return err
		}
	}
	return nil
}

func (c *ChunkSource) loadXxHashMap(chunkNumber uint64) error {
	key, segment, err := c.resolve(c.r.xxHashIndex, chunkNumber)
	if err != nil {
		return err
	}
	sf, err := c.r.segmentFooter(segment)
	if err != nil {
		return err
	}
	off, ok := sf.ChunkXxHashMapTable[key]
	if !ok {
		return zfferr.Newf(zfferr.KindInvalidChunkNumber, "segment %d missing xxhash map instance %d", segment, key)
	}
	src, err := c.r.source(segment)
	if err != nil {
		return err
	}
	b, err := readFullRecord(src, off)
	if err != nil {
		return err
	}
	var m *footer.ChunkXxHashMap
	if c.header.Encryption != nil {
		m, err = footer.ParseEncryptedChunkXxHashMap(b, c.header.Encryption.Algorithm, c.dek, key)
	} else {
		m, err = footer.ParseChunkXxHashMap(b)
	}
	if err != nil {
		return err
	}
	for i, cn := range m.ChunkNumbers {
		v := m.Hashes[i]
		if err := c.mergeEntry(cn, func(e *sidemap.Entry) { e.XxHash = v }); err != nil {
			return err
		}
	}
	return nil
}

func (c *ChunkSource) loadSameBytesMap(chunkNumber uint64) error {
	key, segment, err := c.resolve(c.r.sameBytesIndex, chunkNumber)
	if err != nil {
		return err
	}
	sf, err := c.r.segmentFooter(segment)
	if err != nil {
		return err
	}
	off, ok := sf.ChunkSameBytesMapTable[key]
	if !ok {
		return zfferr.Newf(zfferr.KindInvalidChunkNumber, "segment %d missing same-bytes map instance %d", segment, key)
	}
	src, err := c.r.source(segment)
	if err != nil {
		return err
	}
	b, err := readFullRecord(src, off)
	if err != nil {
		return err
	}
	var m *footer.ChunkSameBytesMap
	if c.header.Encryption != nil {
		m, err = footer.ParseEncryptedChunkSameBytesMap(b, c.header.Encryption.Algorithm, c.dek, key)
	} else {
		m, err = footer.ParseChunkSameBytesMap(b)
	}
	if err != nil {
		return err
	}
	for i, cn := range m.ChunkNumbers {
		v := m.Values[i]
		if err := c.mergeEntry(cn, func(e *sidemap.Entry) { e.SameByte = v }); err != nil {
			return err
		}
	}
	return nil
}

func (c *ChunkSource) loadDedupMap(chunkNumber uint64) error {
	key, segment, err := c.resolve(c.r.dedupIndex, chunkNumber)
	if err != nil {
		return err
	}
	sf, err := c.r.segmentFooter(segment)
	if err != nil {
		return err
	}
	off, ok := sf.ChunkDedupMapTable[key]
	if !ok {
		return zfferr.Newf(zfferr.KindInvalidChunkNumber, "segment %d missing dedup map instance %d", segment, key)
	}
	src, err := c.r.source(segment)
	if err != nil {
		return err
	}
	b, err := readFullRecord(src, off)
	if err != nil {
		return err
	}
	var m *footer.ChunkDedupMap
	if c.header.Encryption != nil {
		m, err = footer.ParseEncryptedChunkDedupMap(b, c.header.Encryption.Algorithm, c.dek, key)
	} else {
		m, err = footer.ParseChunkDedupMap(b)
	}
	if err != nil {
		return err
	}
	for i, cn := range m.ChunkNumbers {
		v := m.DuplicateOf[i]
		if err := c.mergeEntry(cn, func(e *sidemap.Entry) { e.DuplicateOf = v }); err != nil {
			return err
		}
	}
	return nil
}

// resolve is the shared lookup shape every per-map-type loader above uses: binary-search idx
// for the covering instance key, then return the segment it was flushed to.
func (c *ChunkSource) resolve(idx chunkIndex, chunkNumber uint64) (key, segment uint64, err error) {
	key, segment, ok := idx.find(chunkNumber)
	if !ok {
		return 0, 0, zfferr.Newf(zfferr.KindInvalidChunkNumber, "no side-map instance covers chunk %d", chunkNumber)
	}
	return key, segment, nil
}

// ensureCached loads every side-map entry needed to resolve chunkNumber's payload, merging
// results into the reader's preload cache as it goes.
func (c *ChunkSource) ensureCached(chunkNumber uint64) (sidemap.Entry, error) {
	if c.loaded[chunkNumber] {
		e, ok, err := c.r.cache.Get(chunkNumber)
		if err != nil {
			return sidemap.Entry{}, err
		}
		if ok {
			return e, nil
		}
	}

	if err := c.loadOffsetMap(chunkNumber); err != nil {
		return sidemap.Entry{}, err
	}
	if err := c.loadSizeMap(chunkNumber); err != nil {
		return sidemap.Entry{}, err
	}
	if err := c.loadFlagsMap(chunkNumber); err != nil {
		return sidemap.Entry{}, err
	}
	if err := c.loadXxHashMap(chunkNumber); err != nil {
		return sidemap.Entry{}, err
	}

	entry, ok, err := c.r.cache.Get(chunkNumber)
	if err != nil {
		return sidemap.Entry{}, err
	}
	if !ok {
		return sidemap.Entry{}, zfferr.Newf(zfferr.KindInvalidChunkNumber, "chunk %d not found in any side-map", chunkNumber)
	}

	if entry.Flags.Has(format.ChunkFlagSameBytes) {
		if err := c.loadSameBytesMap(chunkNumber); err != nil {
			return sidemap.Entry{}, err
		}
	}
	if entry.Flags.Has(format.ChunkFlagDuplicate) {
		if err := c.loadDedupMap(chunkNumber); err != nil {
			return sidemap.Entry{}, err
		}
	}

	entry, _, err = c.r.cache.Get(chunkNumber)
	if err != nil {
		return sidemap.Entry{}, err
	}
	c.loaded[chunkNumber] = true
	return entry, nil
}

// GetChunk returns the decoded plaintext of chunkNumber, reversing whichever chunk-assembly
// rule produced its on-disk payload, applied in reverse, and
// verifying the xxhash64 integrity digest the side-map recorded for it.
func (c *ChunkSource) GetChunk(chunkNumber uint64) ([]byte, error) {
	entry, err := c.ensureCached(chunkNumber)
	if err != nil {
		return nil, err
	}

	if entry.Flags.Has(format.ChunkFlagDuplicate) {
		src, err := c.r.source(entry.Segment)
		if err != nil {
			return nil, err
		}
		raw := make([]byte, entry.Size)
		if _, err := src.ReadAt(raw, int64(entry.Offset)); err != nil {
			return nil, err
		}
		if entry.Flags.Has(format.ChunkFlagEncryption) {
			aead, err := crypto.NewAEAD(c.header.Encryption.Algorithm, c.dek)
			if err != nil {
				return nil, err
			}
			if raw, err = aead.OpenWithTag(chunkNumber, format.NonceTagChunkPayload, raw); err != nil {
				return nil, err
			}
		}
		// Dedup references always point at an earlier chunk with identical plaintext, so the
		// referenced chunk's own cached xxhash verifies this one too.
		return c.GetChunk(decodeDuplicateRef(raw))
	}

	if entry.Flags.Has(format.ChunkFlagSameBytes) {
		plain := make([]byte, c.header.ChunkSize)
		for i := range plain {
			plain[i] = entry.SameByte
		}
		if crypto.IntegrityHasher{}.Sum64(plain) != entry.XxHash {
			return nil, zfferr.New(zfferr.KindMalformedSegment)
		}
		return plain, nil
	}

	src, err := c.r.source(entry.Segment)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, entry.Size)
	if _, err := src.ReadAt(raw, int64(entry.Offset)); err != nil {
		return nil, err
	}

	if entry.Flags.Has(format.ChunkFlagEncryption) {
		aead, err := crypto.NewAEAD(c.header.Encryption.Algorithm, c.dek)
		if err != nil {
			return nil, err
		}
		if raw, err = aead.OpenWithTag(chunkNumber, format.NonceTagChunkPayload, raw); err != nil {
			return nil, err
		}
	}

	plain := raw
	if entry.Flags.Has(format.ChunkFlagCompression) {
		codec, err := c.r.codec(c.header.Compression.Algorithm)
		if err != nil {
			return nil, err
		}
		// The object's chunk_size bounds every chunk's plaintext except a possibly-shorter
		// final one, so it's a safe size hint for codecs that can use one to skip
		// size-discovery work (see compress.SizedDecompressor).
		if sd, ok := codec.(compress.SizedDecompressor); ok {
			plain, err = sd.DecompressSized(raw, int(c.header.ChunkSize))
		} else {
			plain, err = codec.Decompress(raw)
		}
		if err != nil {
			return nil, err
		}
	}

	if crypto.IntegrityHasher{}.Sum64(plain) != entry.XxHash {
		return nil, zfferr.New(zfferr.KindMalformedSegment)
	}
	return plain, nil
}

func decodeDuplicateRef(b []byte) uint64 {
	var v uint64
	for i := 0; i < len(b) && i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
