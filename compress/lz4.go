package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances; each carries a small internal hash table
// that's worth reusing across calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor compresses chunk payloads with LZ4 block compression: the fastest of the
// built-in codecs, at the cost of ratio relative to Zstd or S2. LZ4's block format carries no
// length of its own, so a plain Decompress has to guess the output size and retry on
// overflow; DecompressSized skips that when the caller knows an upper bound on the size, which
// the chunk reader always does (the object's chunk_size, which no chunk's plaintext exceeds).
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)
var _ SizedDecompressor = (*LZ4Compressor)(nil)

func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dstSize := lz4.CompressBlockBound(len(data))
	dst := make([]byte, dstSize)

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decompresses data without knowing the original size in advance: it starts with a
// buffer 4x the compressed size and doubles on a too-small-buffer error, up to a 128MB safety
// limit.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}
			return nil, err
		}
		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}

// DecompressSized decompresses data into a buffer of exactly sizeHint bytes, skipping the
// guess-and-retry loop Decompress falls back to when the size is unknown. Falls back to
// Decompress if sizeHint turns out too small for the actual plaintext; a hint larger than the
// plaintext (a short final chunk decoded with the object's full chunk_size) needs no fallback.
func (c LZ4Compressor) DecompressSized(data []byte, sizeHint int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if sizeHint <= 0 {
		return c.Decompress(data)
	}

	buf := make([]byte, sizeHint)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return c.Decompress(data)
		}
		return nil, err
	}

	return buf[:n], nil
}
