package chunk

import "sync"

// DedupIndex maps a chunk's content hash to the chunk_number that first produced that
// plaintext, letting later identical chunks be stored as an eight-byte (little-endian u64) back-reference instead
// of their full payload. It is shared by every goroutine
// feeding the pipeline for one object, so lookups and inserts are guarded by a mutex; Probe
// performs both atomically so two chunks with identical plaintext arriving back-to-back
// cannot both be recorded as "first".
type DedupIndex struct {
	mu      sync.Mutex
	entries map[[32]byte]uint64
}

// NewDedupIndex returns an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{entries: make(map[[32]byte]uint64)}
}

// Probe looks up hash. If it is already present, it returns the chunk_number that first
// produced it and true. Otherwise it records chunkNumber under hash and returns (0, false).
func (d *DedupIndex) Probe(hash [32]byte, chunkNumber uint64) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prior, ok := d.entries[hash]; ok {
		return prior, true
	}
	d.entries[hash] = chunkNumber
	return 0, false
}
