package chunk_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/compress"
	"github.com/zetaforensics/zff/format"
)

func TestPipelineSameBytes(t *testing.T) {
	p, err := chunk.New(chunk.WithChunkSize(8))
	require.NoError(t, err)

	buf := bytes.Repeat([]byte{0x41}, 8)
	pc, err := p.Process(context.Background(), 1, buf)
	require.NoError(t, err)
	require.True(t, pc.Flags.Has(format.ChunkFlagSameBytes))
	require.Equal(t, []byte{0x41}, pc.Payload)
}

func TestPipelineDeduplication(t *testing.T) {
	idx := chunk.NewDedupIndex()
	p, err := chunk.New(chunk.WithChunkSize(8), chunk.WithDeduplication(idx))
	require.NoError(t, err)

	buf := []byte("abcdefgh")
	first, err := p.Process(context.Background(), 1, buf)
	require.NoError(t, err)
	require.False(t, first.Flags.Has(format.ChunkFlagDuplicate))

	second, err := p.Process(context.Background(), 2, buf)
	require.NoError(t, err)
	require.True(t, second.Flags.Has(format.ChunkFlagDuplicate))
}

func TestPipelineCompression(t *testing.T) {
	codec, err := compress.GetCodec(format.CompressionZstd)
	require.NoError(t, err)

	p, err := chunk.New(chunk.WithChunkSize(4096), chunk.WithCompressor(codec, chunk.DefaultCompressionThreshold))
	require.NoError(t, err)

	buf := bytes.Repeat([]byte("highly compressible text "), 200)
	pc, err := p.Process(context.Background(), 1, buf)
	require.NoError(t, err)
	require.True(t, pc.Flags.Has(format.ChunkFlagCompression))
	require.Less(t, len(pc.Payload), len(buf))
}

func TestPipelineRawFallback(t *testing.T) {
	p, err := chunk.New(chunk.WithChunkSize(4))
	require.NoError(t, err)

	buf := []byte{0x01, 0x02, 0x03, 0x04}
	pc, err := p.Process(context.Background(), 1, buf)
	require.NoError(t, err)
	require.Equal(t, format.ChunkFlags(0), pc.Flags)
	require.Equal(t, buf, pc.Payload)
}

func TestPipelineEncryption(t *testing.T) {
	dek := make([]byte, 16)
	p, err := chunk.New(chunk.WithChunkSize(4), chunk.WithEncryption(format.EncryptionAES128GCM, dek))
	require.NoError(t, err)

	buf := []byte{0x01, 0x02, 0x03, 0x04}
	pc, err := p.Process(context.Background(), 5, buf)
	require.NoError(t, err)
	require.True(t, pc.Flags.Has(format.ChunkFlagEncryption))
	require.NotEqual(t, buf, pc.Payload)
}
