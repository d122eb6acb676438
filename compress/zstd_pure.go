package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdDecoderPool pools zstd decoders for reuse. Decoding never depends on the encoder level a
// chunk was written at, so every ZstdCompressor instance shares one pool.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

// zstdEncoderPools holds one sync.Pool per zstd.EncoderLevel, since an *zstd.Encoder is
// configured with a fixed level at construction and can't be retargeted once pooled.
var zstdEncoderPools sync.Map // zstd.EncoderLevel -> *sync.Pool

func zstdEncoderPoolFor(level zstd.EncoderLevel) *sync.Pool {
	if p, ok := zstdEncoderPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p := &sync.Pool{
		New: func() any {
			encoder, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(level),
				zstd.WithEncoderCRC(false),
			)
			if err != nil {
				panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
			}
			return encoder
		},
	}
	actual, _ := zstdEncoderPools.LoadOrStore(level, p)
	return actual.(*sync.Pool)
}

// Compress compresses data with the encoder level c was constructed for.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	pool := zstdEncoderPoolFor(c.level)
	encoder := pool.Get().(*zstd.Encoder)
	defer pool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decodes Zstd-compressed data regardless of the level it was encoded at.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return decompressed, nil
}
