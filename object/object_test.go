package object_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"hash"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/object"
	"github.com/zetaforensics/zff/zfferr"
)

func newHasher(alg format.HashAlgorithm) (hash.Hash, error) {
	return crypto.NewPlaintextHasher(alg)
}

func TestPhysicalEncoderChunksInputExactly(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 300) // 3000 bytes
	pipeline, err := chunk.New(chunk.WithChunkSize(1024))
	require.NoError(t, err)

	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(data), 1024, 1, pipeline, []format.HashAlgorithm{format.HashSHA256}, newHasher)
	require.NoError(t, err)

	var total int
	var chunks int
	for {
		pc, err := enc.GetNextChunk(context.Background())
		if err == zfferr.ErrReadEOF {
			break
		}
		require.NoError(t, err)
		total += int(pc.OriginalSize)
		chunks++
	}
	require.Equal(t, len(data), total)
	require.Equal(t, 3, chunks)

	f := enc.Finalize()
	require.Equal(t, uint64(1), f.FirstChunkNumber)
	require.Equal(t, uint64(3), f.NumberOfChunks)
	require.Equal(t, uint64(len(data)), f.LengthOfData)
	require.Len(t, f.Hash.Values, 1)

	expected := sha256.Sum256(data)
	require.Equal(t, expected[:], f.Hash.Values[0].Digest)
}

func TestLogicalEncoderWalksFileQueue(t *testing.T) {
	files := []object.FileEntry{
		{FileNumber: 1, FileType: format.FileTypeFile, Filename: "/a", Content: strings.NewReader("hello world")},
		{FileNumber: 2, FileType: format.FileTypeDirectory, Filename: "/dir"},
	}
	pipeline, err := chunk.New(chunk.WithChunkSize(4096))
	require.NoError(t, err)

	enc := object.NewLogicalEncoder(1, files, 4096, 1, pipeline, []format.HashAlgorithm{format.HashSHA256}, newHasher)

	segOffset := uint64(0)
	next := func() (uint64, uint64) {
		segOffset += 100
		return 1, segOffset
	}

	var records []*object.EmittedRecord
	for {
		rec, err := enc.Next(context.Background(), next)
		if err == zfferr.ErrReadEOF {
			break
		}
		require.NoError(t, err)
		records = append(records, rec)
	}

	require.Equal(t, "/a", records[0].FileHeader.Filename)
	require.NotNil(t, records[1].Chunk)
	require.Equal(t, uint64(1), records[2].FileFooter.FileNumber)
	require.Equal(t, "/dir", records[3].FileHeader.Filename)
	require.Equal(t, uint64(2), records[4].FileFooter.FileNumber)
	require.Equal(t, uint64(0), records[4].FileFooter.NumberOfChunks)

	of := enc.Finalize()
	require.Len(t, of.FileHeaderLocations, 2)
	require.Len(t, of.FileFooterLocations, 2)
}

func TestVirtualEncoderBuildsSingleLayer(t *testing.T) {
	entries := []object.MappingEntry{
		{Position: 0, Info: footer.VirtualMappingInformation{PassiveObject: 1, StartChunk: 0, ChunkOffset: 0, Length: 1000}},
		{Position: 1000, Info: footer.VirtualMappingInformation{PassiveObject: 2, StartChunk: 0, ChunkOffset: 0, Length: 2000}},
	}
	enc := object.NewVirtualEncoder(7, entries)
	layout := enc.Build()
	require.Len(t, layout.Layers, 1)
	require.Len(t, layout.Leaves, 2)

	f := enc.Finalize(4096)
	require.Equal(t, []uint64{1, 2}, f.PassiveObjectNumbers)
	require.Equal(t, uint64(4096), f.RootMapOffset)
}

func TestLogicalEncoderEOFAtEnd(t *testing.T) {
	pipeline, err := chunk.New(chunk.WithChunkSize(16))
	require.NoError(t, err)
	enc := object.NewLogicalEncoder(1, nil, 16, 1, pipeline, nil, newHasher)
	_, err = enc.Next(context.Background(), nil)
	require.ErrorIs(t, err, zfferr.ErrReadEOF)
}
