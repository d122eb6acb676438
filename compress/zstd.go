package compress

import "github.com/klauspost/compress/zstd"

// ZstdCompressor compresses chunk payloads with Zstandard. It favors compression ratio over
// speed, which suits chunk streams that are written once (during acquisition) and read
// comparatively rarely (during analysis or verification).
//
// The encoder level is fixed at construction time rather than per call: NewZstdCompressor
// picks a sensible default, while NewZstdCompressorForChunkSize adapts the level to the
// object's configured chunk_size, since that size is known for the lifetime of the object and
// never changes per chunk.
type ZstdCompressor struct {
	level zstd.EncoderLevel
}

var _ Codec = (*ZstdCompressor)(nil)

// zstdLargeChunkSize is the chunk_size at and above which NewZstdCompressorForChunkSize trades
// encoder speed for ratio: large chunks are compressed far less often per byte of acquired
// data, so the one-time cost of a slower level matters less than the ratio it buys.
const zstdLargeChunkSize = 256 * 1024

// NewZstdCompressor creates a Zstd compressor at zstd.SpeedDefault.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{level: zstd.SpeedDefault}
}

// NewZstdCompressorForChunkSize creates a Zstd compressor whose encoder level is chosen from
// chunkSize: chunks at or above zstdLargeChunkSize compress at zstd.SpeedBetterCompression,
// smaller chunks (the common case) at zstd.SpeedDefault.
func NewZstdCompressorForChunkSize(chunkSize uint64) ZstdCompressor {
	if chunkSize >= zstdLargeChunkSize {
		return ZstdCompressor{level: zstd.SpeedBetterCompression}
	}
	return ZstdCompressor{level: zstd.SpeedDefault}
}
