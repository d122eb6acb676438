// End-to-end scenarios exercised through the package-level zff.CreateWriter/zff.Open convenience
// API, against real files on disk.
package zff_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"hash"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/object"
	"github.com/zetaforensics/zff/segment"
	"github.com/zetaforensics/zff/zff"
)

func newHasher(alg format.HashAlgorithm) (hash.Hash, error) {
	return crypto.NewPlaintextHasher(alg)
}

func plainObjectHeader(objectNumber uint64, objectType format.ObjectType, chunkSize uint64) *header.ObjectHeader {
	return &header.ObjectHeader{
		ObjectNumber: objectNumber,
		ObjectType:   objectType,
		ChunkSize:    chunkSize,
		Compression:  &header.CompressionHeader{Algorithm: format.CompressionNone},
		Hash:         &header.HashHeader{},
	}
}

// S1: tiny input smaller than one chunk.
func TestS1RoundTripTiny(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "case001")

	pipeline, err := chunk.New(chunk.WithChunkSize(16))
	require.NoError(t, err)
	data := []byte("hello world")
	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(data), 16, 1, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, newHasher)
	require.NoError(t, err)

	w, err := zff.CreateWriter(base, segment.WithUniqueIdentifier(101))
	require.NoError(t, err)
	require.NoError(t, w.WritePhysicalObject(context.Background(), plainObjectHeader(1, format.ObjectTypePhysical, 16), enc, nil))
	require.NoError(t, w.Close())

	c, err := zff.Open(base)
	require.NoError(t, err)
	defer c.Close()

	phys, err := c.Physical(1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), phys.NumberOfChunks())

	out := make([]byte, len(data))
	n, err := phys.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, data, out[:n])
}

// S2: a chunk-size-aligned buffer of one repeated byte compacts to a same-bytes chunk.
func TestS2SameByteCompaction(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "case002")

	const chunkSize = 32768
	data := bytes.Repeat([]byte{0x41}, 2*chunkSize)

	pipeline, err := chunk.New(chunk.WithChunkSize(chunkSize))
	require.NoError(t, err)
	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(data), chunkSize, 1, pipeline, nil, nil)
	require.NoError(t, err)

	w, err := zff.CreateWriter(base, segment.WithUniqueIdentifier(102))
	require.NoError(t, err)
	require.NoError(t, w.WritePhysicalObject(context.Background(), plainObjectHeader(1, format.ObjectTypePhysical, chunkSize), enc, nil))
	require.NoError(t, w.Close())

	c, err := zff.Open(base)
	require.NoError(t, err)
	defer c.Close()

	phys, err := c.Physical(1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), phys.NumberOfChunks())

	for i := uint64(0); i < 2; i++ {
		got, err := phys.Chunk(i)
		require.NoError(t, err)
		require.Equal(t, chunkSize, len(got))
		require.Equal(t, bytes.Repeat([]byte{0x41}, chunkSize), got)
	}

	out := make([]byte, len(data))
	n, err := phys.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, out)
}

// S3: repeated content deduplicates against the first occurrence of each distinct chunk.
func TestS3DedupHit(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "case003")

	const chunkSize = 128
	block := make([]byte, 1024)
	for i := range block {
		block[i] = byte(i)
	}
	data := append(append(append([]byte{}, block...), block...), block...)

	idx := chunk.NewDedupIndex()
	pipeline, err := chunk.New(chunk.WithChunkSize(chunkSize), chunk.WithDeduplication(idx))
	require.NoError(t, err)
	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(data), chunkSize, 1, pipeline, nil, nil)
	require.NoError(t, err)

	w, err := zff.CreateWriter(base, segment.WithUniqueIdentifier(103))
	require.NoError(t, err)
	require.NoError(t, w.WritePhysicalObject(context.Background(), plainObjectHeader(1, format.ObjectTypePhysical, chunkSize), enc, nil))
	require.NoError(t, w.Close())

	c, err := zff.Open(base)
	require.NoError(t, err)
	defer c.Close()

	phys, err := c.Physical(1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(24), phys.NumberOfChunks()) // 1024/128 * 3 repeats

	out := make([]byte, len(data))
	n, err := phys.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, out)
}

// S4: rollover forces multiple segments with chunk_number continuous across the boundary.
func TestS4Rollover(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "case004")

	const chunkSize = 1024
	data := bytes.Repeat([]byte("0123456789abcdef0123456789ABCDEF"), 1250) // ~40000 bytes

	pipeline, err := chunk.New(chunk.WithChunkSize(chunkSize))
	require.NoError(t, err)
	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(data), chunkSize, 1, pipeline, nil, nil)
	require.NoError(t, err)

	w, err := zff.CreateWriter(base, segment.WithUniqueIdentifier(104), segment.WithTargetSegmentSize(8192))
	require.NoError(t, err)
	require.NoError(t, w.WritePhysicalObject(context.Background(), plainObjectHeader(1, format.ObjectTypePhysical, chunkSize), enc, nil))
	require.NoError(t, w.Close())

	c, err := zff.Open(base)
	require.NoError(t, err)
	defer c.Close()

	require.GreaterOrEqual(t, c.NumberOfSegments(), uint64(5))

	phys, err := c.Physical(1, nil)
	require.NoError(t, err)
	out := make([]byte, len(data))
	n, err := phys.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, out)
}

// S5: an AES-256-GCM-encrypted object refuses decryption without the password, fails on a
// wrong password, and round-trips with the correct one. The container's other objects remain
// readable throughout.
func TestS5EncryptedPhysical(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "case005")

	const chunkSize = 4096
	secret := make([]byte, 1<<20)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	dek := make([]byte, format.EncryptionAES256GCM.KeySize())
	_, err = rand.Read(dek)
	require.NoError(t, err)

	salt := make([]byte, 16)
	_, err = rand.Read(salt)
	require.NoError(t, err)
	iv := make([]byte, 16)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	password := []byte("correct horse battery staple")
	kdfParams := crypto.DefaultKDFParams()
	wrapKey, err := crypto.DeriveKey(format.KDFScrypt, kdfParams, password, salt, format.PBEAES256CBC.KeySize())
	require.NoError(t, err)
	wrapped, err := crypto.WrapKey(format.PBEAES256CBC, wrapKey, iv, dek)
	require.NoError(t, err)

	encHeader := &header.EncryptionHeader{
		Algorithm: format.EncryptionAES256GCM,
		PBE: &header.PBEHeader{
			KDFScheme: format.KDFScrypt,
			PBEScheme: format.PBEAES256CBC,
			Params:    kdfParams,
			Salt:      salt,
			IV:        iv,
		},
		WrappedKey: wrapped,
	}

	pipeline, err := chunk.New(chunk.WithChunkSize(chunkSize), chunk.WithEncryption(format.EncryptionAES256GCM, dek))
	require.NoError(t, err)
	enc, err := object.NewPhysicalEncoder(1, bytes.NewReader(secret), chunkSize, 1, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, newHasher)
	require.NoError(t, err)

	oh := plainObjectHeader(1, format.ObjectTypePhysical, chunkSize)
	oh.Encryption = encHeader

	w, err := zff.CreateWriter(base, segment.WithUniqueIdentifier(105))
	require.NoError(t, err)
	require.NoError(t, w.WritePhysicalObject(context.Background(), oh, enc, dek))

	// A second, unencrypted object must stay readable regardless of what happens to object 1.
	plainData := []byte("unaffected by encryption on object 1")
	plainPipeline, err := chunk.New(chunk.WithChunkSize(4096))
	require.NoError(t, err)
	plainEnc, err := object.NewPhysicalEncoder(2, bytes.NewReader(plainData), 4096, enc.NextChunkNumber(), plainPipeline, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.WritePhysicalObject(context.Background(), plainObjectHeader(2, format.ObjectTypePhysical, 4096), plainEnc, nil))
	require.NoError(t, w.Close())

	c, err := zff.Open(base)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Physical(1, nil)
	require.Error(t, err)

	_, err = c.Physical(1, []byte("wrong"))
	require.Error(t, err)

	phys, err := c.Physical(1, password)
	require.NoError(t, err)
	out := make([]byte, len(secret))
	n, err := phys.ReadAt(out, 0)
	require.NoError(t, err)
	require.Equal(t, len(secret), n)
	require.Equal(t, secret, out)

	otherPhys, err := c.Physical(2, nil)
	require.NoError(t, err)
	out2 := make([]byte, len(plainData))
	_, err = otherPhys.ReadAt(out2, 0)
	require.NoError(t, err)
	require.Equal(t, plainData, out2)
}

// S6: a hardlinked file has no content chunks of its own but still names its target.
func TestS6LogicalHardlink(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "case006")

	content := bytes.Repeat([]byte("X"), 1000)
	files := []object.FileEntry{
		{FileNumber: 1, FileType: format.FileTypeFile, Filename: "/a", Content: bytes.NewReader(content)},
		{
			FileNumber: 2, FileType: format.FileTypeHardlink, Filename: "/b",
			MetadataExt: map[string]encoding.ExtValue{"hardlink_target": encoding.NewExtU64(1)},
		},
	}

	pipeline, err := chunk.New(chunk.WithChunkSize(256))
	require.NoError(t, err)
	enc := object.NewLogicalEncoder(1, files, 256, 1, pipeline, nil, nil)

	w, err := zff.CreateWriter(base, segment.WithUniqueIdentifier(106))
	require.NoError(t, err)
	require.NoError(t, w.WriteLogicalObject(context.Background(), plainObjectHeader(1, format.ObjectTypeLogical, 256), enc, nil))
	require.NoError(t, w.Close())

	c, err := zff.Open(base)
	require.NoError(t, err)
	defer c.Close()

	lg, err := c.Logical(1, nil)
	require.NoError(t, err)

	aFooter, err := lg.FileFooter(1)
	require.NoError(t, err)
	require.Equal(t, uint64(len(content)), aFooter.LengthOfData)

	bHeader, err := lg.FileHeader(2)
	require.NoError(t, err)
	require.Equal(t, format.FileTypeHardlink, bHeader.FileType)

	bFooter, err := lg.FileFooter(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0), bFooter.NumberOfChunks)
}
