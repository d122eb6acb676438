package compress

import (
	"fmt"

	"github.com/zetaforensics/zff/format"
)

// Compressor compresses one chunk payload. The chunk pipeline calls Compress on every chunk,
// concurrently with its same-bytes and dedup checks, and keeps the result only when neither
// of those rules applies and the ratio meets CompressionThreshold.
type Compressor interface {
	// Compress returns a new slice; it never modifies data in place.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor. A reader picks the Decompressor matching the
// CompressionHeader.Algorithm recorded for the object a chunk belongs to.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec is a compression algorithm capable of both directions, the shape every entry in
// builtinCodecs implements.
type Codec interface {
	Compressor
	Decompressor
}

// SizedDecompressor is an optional capability: a Decompressor that can skip size-discovery
// work when the caller already knows (or can bound) the decompressed size. LZ4Compressor
// implements this; codecs whose wire format already carries the original size (Zstd, S2) have
// no need to.
type SizedDecompressor interface {
	DecompressSized(data []byte, sizeHint int) ([]byte, error)
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for compressionType, used on the read path where only
// the algorithm on disk (not the chunk_size it was written with) is known.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// GetCodecForChunkSize is GetCodec for the write path, where the object's configured
// chunk_size is available and codecs that support level tuning (currently Zstd) can be
// shaped to it.
func GetCodecForChunkSize(compressionType format.CompressionType, chunkSize uint64) (Codec, error) {
	if compressionType == format.CompressionZstd {
		return NewZstdCompressorForChunkSize(chunkSize), nil
	}
	return GetCodec(compressionType)
}
