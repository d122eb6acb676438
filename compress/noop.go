package compress

// NoOpCompressor passes chunk payloads through unchanged. It backs format.CompressionNone: the
// object declares no compression algorithm, so the chunk pipeline's compression stage is
// skipped and this codec exists only so CompressionHeader-driven code can treat "no
// compression" as just another Codec instead of a special case.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data unchanged. The returned slice aliases data; callers that mutate data
// afterward must not rely on the returned slice being unaffected.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged, mirroring Compress.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
