// Package chunk implements the per-chunk analysis and encoding pipeline: same-bytes
// detection, content-addressed deduplication, compression, and
// integrity hashing, run concurrently over one read-only buffer, followed by the chunk
// assembly rules that decide what actually gets written to disk.
package chunk

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zetaforensics/zff/compress"
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/internal/options"
	"github.com/zetaforensics/zff/internal/pool"
)

// PreparedChunk is the result of running one plaintext buffer through the pipeline: the
// payload bytes that should be appended to the segment's chunk stream, the flags describing
// how to interpret them, and the integrity hash side-maps always record.
type PreparedChunk struct {
	ChunkNumber   uint64
	Payload       []byte
	Flags         format.ChunkFlags
	IntegrityHash uint64
	OriginalSize  uint64

	// buf is non-nil when Payload aliases a buffer checked out of the chunk pool (the stored
	// case, where the plaintext is copied verbatim rather than replaced by a short
	// same-bytes/dedup marker or a freshly allocated compressed/encrypted buffer). Release
	// returns it once the segment writer is done reading Payload.
	buf *pool.ByteBuffer
}

// Release returns pc's pooled buffer, if it has one, so it can be reused by a later chunk.
// Safe to call on a PreparedChunk with no pooled buffer. Must not be called until every read
// of Payload has completed, since Put may hand the backing array to another caller.
func (pc *PreparedChunk) Release() {
	if pc.buf == nil {
		return
	}
	pool.PutChunkBuffer(pc.buf)
	pc.buf = nil
}

// Config holds the per-object pipeline configuration.
type Config struct {
	ChunkSize             uint64
	Compressor            compress.Compressor
	CompressionThreshold  float64
	Dedup                 *DedupIndex // nil disables deduplication
	Encryption            *EncryptionConfig
}

// EncryptionConfig carries the data-encryption key a pipeline AEAD-seals chosen payloads
// under, when the owning object declares encryption.
type EncryptionConfig struct {
	Algorithm format.EncryptionAlgorithm
	DEK       []byte
}

// Option configures a Config via the generic functional-options pattern.
type Option = options.Option[*Config]

// WithChunkSize sets the fixed plaintext size pulled per chunk (the final chunk of an object
// may legally be shorter).
func WithChunkSize(n uint64) Option {
	return options.NoError(func(c *Config) { c.ChunkSize = n })
}

// WithCompressor installs the codec used for rule 3 of chunk assembly.
func WithCompressor(codec compress.Compressor, threshold float64) Option {
	return options.NoError(func(c *Config) {
		c.Compressor = codec
		c.CompressionThreshold = threshold
	})
}

// WithDeduplication enables rule 2 of chunk assembly against idx.
func WithDeduplication(idx *DedupIndex) Option {
	return options.NoError(func(c *Config) { c.Dedup = idx })
}

// WithEncryption enables AEAD-sealing the chosen payload under alg/dek.
func WithEncryption(alg format.EncryptionAlgorithm, dek []byte) Option {
	return options.NoError(func(c *Config) { c.Encryption = &EncryptionConfig{Algorithm: alg, DEK: dek} })
}

// DefaultCompressionThreshold matches the ratio below which compressed output is judged "not
// worth it": a chunk keeps its compressed form only when original/compressed is at least
// this value.
const DefaultCompressionThreshold = 1.05

// Pipeline runs the four-analysis chunk pipeline against successive plaintext buffers for one
// object. It is not safe for concurrent use by multiple callers for the *same* object (the
// caller's chunk_number sequencing must be serialized), but the analyses within a single Process
// call run concurrently via errgroup.
type Pipeline struct {
	cfg Config
}

// New constructs a Pipeline. ChunkSize must be set via WithChunkSize.
func New(opts ...Option) (*Pipeline, error) {
	cfg := &Config{CompressionThreshold: DefaultCompressionThreshold}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: *cfg}, nil
}

// Process runs buf (the plaintext bytes of chunk chunkNumber, already read by the object
// encoder) through the pipeline and returns the PreparedChunk ready for the segment writer to
// append to the chunk stream.
func (p *Pipeline) Process(ctx context.Context, chunkNumber uint64, buf []byte) (*PreparedChunk, error) {
	var (
		sameBytes     bool
		dedupHash     [32]byte
		dedupComputed bool
		compressed    []byte
		compressOK    bool
		integrityHash uint64
	)

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		sameBytes = probeSameBytes(buf, p.cfg.ChunkSize)
		return nil
	})

	if p.cfg.Dedup != nil {
		g.Go(func() error {
			dedupHash = crypto.DedupHash(buf)
			dedupComputed = true
			return nil
		})
	}

	if p.cfg.Compressor != nil {
		g.Go(func() error {
			out, err := p.cfg.Compressor.Compress(buf)
			if err != nil {
				return nil // compression failure just means "not worth it", not fatal
			}
			if float64(len(buf))/float64(len(out)) >= p.cfg.CompressionThreshold {
				compressed = out
				compressOK = true
			}
			return nil
		})
	}

	g.Go(func() error {
		integrityHash = crypto.IntegrityHasher{}.Sum64(buf)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pc := &PreparedChunk{
		ChunkNumber:   chunkNumber,
		IntegrityHash: integrityHash,
		OriginalSize:  uint64(len(buf)),
	}

	var priorChunk uint64
	var isDuplicate bool
	if dedupComputed {
		priorChunk, isDuplicate = p.cfg.Dedup.Probe(dedupHash, chunkNumber)
	}

	switch {
	case uint64(len(buf)) == p.cfg.ChunkSize && sameBytes:
		pc.Payload = []byte{buf[0]}
		pc.Flags |= format.ChunkFlagSameBytes
	case isDuplicate:
		pc.Payload = encodeDuplicateRef(priorChunk)
		pc.Flags |= format.ChunkFlagDuplicate
	case compressOK:
		pc.Payload = compressed
		pc.Flags |= format.ChunkFlagCompression
	default:
		bb := pool.GetChunkBuffer()
		bb.MustWrite(buf)
		pc.Payload = bb.Bytes()
		pc.buf = bb
	}

	if p.cfg.Encryption != nil {
		aead, err := crypto.NewAEAD(p.cfg.Encryption.Algorithm, p.cfg.Encryption.DEK)
		if err != nil {
			return nil, err
		}
		pc.Payload = aead.SealWithTag(chunkNumber, format.NonceTagChunkPayload, pc.Payload)
		pc.Flags |= format.ChunkFlagEncryption
		// SealWithTag always returns a freshly allocated slice, so Payload no longer aliases
		// the pooled buffer; release it now instead of waiting for the writer to do so.
		pc.Release()
	}

	return pc, nil
}

func probeSameBytes(buf []byte, chunkSize uint64) bool {
	if len(buf) == 0 || uint64(len(buf)) != chunkSize {
		return false
	}
	first := buf[0]
	for _, b := range buf[1:] {
		if b != first {
			return false
		}
	}
	return true
}

func encodeDuplicateRef(priorChunkNumber uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(priorChunkNumber >> (8 * i))
	}
	return b
}
