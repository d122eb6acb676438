package reader_test

import (
	"bytes"
	"context"
	"hash"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/compress"
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/object"
	"github.com/zetaforensics/zff/reader"
	"github.com/zetaforensics/zff/segment"
)

func newHasher(alg format.HashAlgorithm) (hash.Hash, error) {
	return crypto.NewPlaintextHasher(alg)
}

// memSink buffers one segment's bytes in memory.
type memSink struct {
	buf    *bytes.Buffer
	closed *[]byte
}

func (s memSink) Write(p []byte) (int, error) { return s.buf.Write(p) }
func (s memSink) Close() error {
	*s.closed = s.buf.Bytes()
	return nil
}

// memSegments accumulates every segment a Writer produces, in segment-number order, and
// exposes them as reader.Source values once writing is finished.
type memSegments struct {
	bufs [][]byte
}

func (m *memSegments) sinkFactory() segment.SinkFactory {
	return func(n uint64, extension string) (segment.Sink, error) {
		for uint64(len(m.bufs)) < n {
			m.bufs = append(m.bufs, nil)
		}
		buf := new(bytes.Buffer)
		return memSink{buf: buf, closed: &m.bufs[n-1]}, nil
	}
}

func (m *memSegments) sources() []reader.Source {
	out := make([]reader.Source, len(m.bufs))
	for i, b := range m.bufs {
		out[i] = memSource(b)
	}
	return out
}

type memSource []byte

func (s memSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off) > len(s) {
		return 0, io.EOF
	}
	n := copy(p, s[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
func (s memSource) Size() (int64, error) { return int64(len(s)), nil }

func plainObjectHeader(objectNumber uint64, objectType format.ObjectType, chunkSize uint64) *header.ObjectHeader {
	return &header.ObjectHeader{
		ObjectNumber: objectNumber,
		ObjectType:   objectType,
		ChunkSize:    chunkSize,
		Compression:  &header.CompressionHeader{Algorithm: format.CompressionNone},
		Hash:         &header.HashHeader{},
	}
}

func TestPhysicalObjectRoundTrip(t *testing.T) {
	// 4 chunks of 8 bytes: raw, same-bytes, duplicate-of-raw, and another same-bytes chunk.
	data := []byte("ABCDEFGH") // raw
	data = append(data, bytes.Repeat([]byte{'Z'}, 8)...)
	data = append(data, []byte("ABCDEFGH")...) // duplicate of chunk 1
	data = append(data, bytes.Repeat([]byte("0"), 8)...)

	idx := chunk.NewDedupIndex()
	pipeline, err := chunk.New(
		chunk.WithChunkSize(8),
		chunk.WithCompressor(compress.NewLZ4Compressor(), 1.05),
		chunk.WithDeduplication(idx),
	)
	require.NoError(t, err)

	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(data), 8, 1, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, newHasher)
	require.NoError(t, err)

	segs := &memSegments{}
	w, err := segment.NewWriter(segs.sinkFactory(), nil, segment.WithUniqueIdentifier(1))
	require.NoError(t, err)

	oh := plainObjectHeader(1, format.ObjectTypePhysical, 8)
	require.NoError(t, w.WritePhysicalObject(context.Background(), oh, enc, nil))
	require.NoError(t, w.Close())

	r, err := reader.Open(segs.sources(), nil)
	require.NoError(t, err)
	defer r.Close()

	phys, err := r.Physical(1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(4), phys.NumberOfChunks())

	for i, want := range [][]byte{data[0:8], data[8:16], data[16:24], data[24:32]} {
		got, err := phys.Chunk(uint64(i))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	out := make([]byte, len(data))
	n, err := phys.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, out)

	// A read entirely within one chunk still round-trips.
	mid := make([]byte, 4)
	n, err = phys.ReadAt(mid, 10)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, data[10:14], mid)
}

func TestLogicalObjectRoundTrip(t *testing.T) {
	content := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)
	files := []object.FileEntry{
		{FileNumber: 2, FileType: format.FileTypeDirectory, Filename: "/dir", ParentFileNumber: 1},
		{FileNumber: 3, FileType: format.FileTypeFile, Filename: "/dir/file.txt", ParentFileNumber: 2,
			Content: strings.NewReader(content)},
	}
	pipeline, err := chunk.New(chunk.WithChunkSize(64))
	require.NoError(t, err)

	enc := object.NewLogicalEncoder(1, files, 64, 1, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, newHasher)

	segs := &memSegments{}
	w, err := segment.NewWriter(segs.sinkFactory(), nil, segment.WithUniqueIdentifier(2))
	require.NoError(t, err)

	oh := plainObjectHeader(1, format.ObjectTypeLogical, 64)
	require.NoError(t, w.WriteLogicalObject(context.Background(), oh, enc, nil))
	require.NoError(t, w.Close())

	r, err := reader.Open(segs.sources(), nil)
	require.NoError(t, err)
	defer r.Close()

	lg, err := r.Logical(1, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint64{2, 3}, lg.FileNumbers())

	dirHeader, err := lg.FileHeader(2)
	require.NoError(t, err)
	require.Equal(t, "/dir", dirHeader.Filename)
	require.Equal(t, format.FileTypeDirectory, dirHeader.FileType)

	dirFooter, err := lg.FileFooter(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0), dirFooter.NumberOfChunks)

	fileHeader, err := lg.FileHeader(3)
	require.NoError(t, err)
	require.Equal(t, "/dir/file.txt", fileHeader.Filename)
	require.Equal(t, uint64(2), fileHeader.ParentFileNumber)

	fileFooter, err := lg.FileFooter(3)
	require.NoError(t, err)
	require.Equal(t, uint64(len(content)), fileFooter.LengthOfData)

	out := make([]byte, len(content))
	n, err := lg.ReadFileAt(3, out, 0)
	require.NoError(t, err)
	require.Equal(t, len(content), n)
	require.Equal(t, content, string(out))
}

func TestVirtualObjectRoundTrip(t *testing.T) {
	firstData := bytes.Repeat([]byte("1111111122222222"), 4) // 64 bytes
	secondData := bytes.Repeat([]byte("aaaaaaaabbbbbbbb"), 4) // 64 bytes

	pipeline, err := chunk.New(chunk.WithChunkSize(16))
	require.NoError(t, err)

	firstEnc, err := object.NewPhysicalEncoder(1, bytes.NewReader(firstData), 16, 1, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, newHasher)
	require.NoError(t, err)
	secondEnc, err := object.NewPhysicalEncoder(2, bytes.NewReader(secondData), 16, 5, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, newHasher)
	require.NoError(t, err)

	segs := &memSegments{}
	w, err := segment.NewWriter(segs.sinkFactory(), nil, segment.WithUniqueIdentifier(3))
	require.NoError(t, err)

	firstHeader := plainObjectHeader(1, format.ObjectTypePhysical, 16)
	require.NoError(t, w.WritePhysicalObject(context.Background(), firstHeader, firstEnc, nil))
	secondHeader := plainObjectHeader(2, format.ObjectTypePhysical, 16)
	require.NoError(t, w.WritePhysicalObject(context.Background(), secondHeader, secondEnc, nil))

	entries := []object.MappingEntry{
		{Position: 0, Info: footer.VirtualMappingInformation{
			PassiveObject: 1, StartChunk: 1, ChunkOffset: 0, Length: uint64(len(firstData)),
		}},
		{Position: uint64(len(firstData)), Info: footer.VirtualMappingInformation{
			PassiveObject: 2, StartChunk: 5, ChunkOffset: 0, Length: uint64(len(secondData)),
		}},
	}
	venc := object.NewVirtualEncoder(3, entries)
	vHeader := plainObjectHeader(3, format.ObjectTypeVirtual, 16)
	require.NoError(t, w.WriteVirtualObject(vHeader, venc, nil))
	require.NoError(t, w.Close())

	r, err := reader.Open(segs.sources(), nil)
	require.NoError(t, err)
	defer r.Close()

	v, err := r.Virtual(3, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, v.Footer.PassiveObjectNumbers)

	want := append(append([]byte{}, firstData...), secondData...)
	out := make([]byte, len(want))
	n, err := v.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, len(want), n)
	require.Equal(t, want, out)

	// A read spanning the boundary between the two passive mappings.
	boundary := make([]byte, 8)
	n, err = v.ReadAt(boundary, int64(len(firstData)-4))
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, want[len(firstData)-4:len(firstData)+4], boundary)
}

func TestPhysicalObjectSpansMultipleSegments(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789ABCDEF"), 50) // 800 bytes, 16-byte chunks

	pipeline, err := chunk.New(chunk.WithChunkSize(16))
	require.NoError(t, err)
	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(data), 16, 1, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, newHasher)
	require.NoError(t, err)

	segs := &memSegments{}
	// A tiny target size forces rollover partway through the object's chunk stream.
	w, err := segment.NewWriter(segs.sinkFactory(), nil,
		segment.WithUniqueIdentifier(4), segment.WithTargetSegmentSize(200))
	require.NoError(t, err)

	oh := plainObjectHeader(1, format.ObjectTypePhysical, 16)
	require.NoError(t, w.WritePhysicalObject(context.Background(), oh, enc, nil))
	require.NoError(t, w.Close())
	require.Greater(t, len(segs.bufs), 1)

	r, err := reader.Open(segs.sources(), nil)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, uint64(len(segs.bufs)), r.NumberOfSegments())

	phys, err := r.Physical(1, nil)
	require.NoError(t, err)

	out := make([]byte, len(data))
	n, err := phys.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, out)
}
