package reader

import (
	"github.com/zetaforensics/zff/compress"
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/zfferr"
)

func (r *Reader) codec(alg format.CompressionType) (compress.Decompressor, error) {
	return compress.GetCodec(alg)
}

// objectHeaderLocation resolves objectNumber to the segment and local byte offset its
// ObjectHeader record was written at.
func (r *Reader) objectHeaderLocation(objectNumber uint64) (segment, offset uint64, err error) {
	segment, ok := r.mainFooter.ObjectHeaderSegments[objectNumber]
	if !ok {
		return 0, 0, zfferr.Newf(zfferr.KindMissingObjectNumber, "object %d has no header", objectNumber)
	}
	sf, err := r.segmentFooter(segment)
	if err != nil {
		return 0, 0, err
	}
	offset, ok = sf.ObjectHeaderOffsets[objectNumber]
	if !ok {
		return 0, 0, zfferr.Newf(zfferr.KindMissingObjectNumber, "object %d has no header", objectNumber)
	}
	return segment, offset, nil
}

// objectFooterLocation resolves objectNumber to the segment and local byte offset its
// ObjectFooter record was written at.
func (r *Reader) objectFooterLocation(objectNumber uint64) (segment, offset uint64, err error) {
	segment, ok := r.mainFooter.ObjectFooterSegments[objectNumber]
	if !ok {
		return 0, 0, zfferr.Newf(zfferr.KindMissingObjectNumber, "object %d has no footer", objectNumber)
	}
	sf, err := r.segmentFooter(segment)
	if err != nil {
		return 0, 0, err
	}
	offset, ok = sf.ObjectFooterOffsets[objectNumber]
	if !ok {
		return 0, 0, zfferr.Newf(zfferr.KindMissingObjectNumber, "object %d has no footer", objectNumber)
	}
	return segment, offset, nil
}

// readObjectHeader fetches and decodes objectNumber's ObjectHeader, transparently handling
// the encrypted two-form wire layout: the plaintext object_number and EncryptionHeader are
// peeked first, so a wrong or missing password is
// reported before any other field is touched.
func (r *Reader) readObjectHeader(objectNumber uint64, password []byte) (*header.ObjectHeader, []byte, error) {
	segment, offset, err := r.objectHeaderLocation(objectNumber)
	if err != nil {
		return nil, nil, err
	}
	src, err := r.source(segment)
	if err != nil {
		return nil, nil, err
	}
	b, err := readFullRecord(src, offset)
	if err != nil {
		return nil, nil, err
	}

	ident, err := peekIdentifier(src, offset)
	if err != nil {
		return nil, nil, err
	}
	if ident == format.IdentObjectHeader {
		oh, err := header.ParseObjectHeader(b)
		return oh, nil, err
	}

	_, enc, rest, err := header.PeekEncryptedObjectHeader(b)
	if err != nil {
		return nil, nil, err
	}
	if password == nil {
		return nil, nil, zfferr.New(zfferr.KindMissingEncryptionKey)
	}
	wrapKey, err := crypto.DeriveKey(enc.PBE.KDFScheme, enc.PBE.Params, password, enc.PBE.Salt, enc.PBE.PBEScheme.KeySize())
	if err != nil {
		return nil, nil, err
	}
	dek, err := crypto.UnwrapKey(enc.PBE.PBEScheme, wrapKey, enc.PBE.IV, enc.WrappedKey)
	if err != nil {
		return nil, nil, err
	}
	oh, err := header.DecodeEncrypted(objectNumber, enc, rest, dek)
	if err != nil {
		return nil, nil, err
	}
	return oh, dek, nil
}

// ObjectReader is a handle to one open object: its decoded ObjectHeader, unwrapped
// data-encryption key (nil when the object is not encrypted), and a ChunkSource for random
// access into its chunk stream.
type ObjectReader struct {
	Header *header.ObjectHeader
	dek    []byte
	chunks *ChunkSource
}

// OpenObject decodes objectNumber's ObjectHeader (unwrapping its data-encryption key with
// password if the object is encrypted) and returns a ready-to-use ObjectReader. Callers branch
// on Header.ObjectType to pick the matching Physical/Logical/Virtual accessor.
func (r *Reader) OpenObject(objectNumber uint64, password []byte) (*ObjectReader, error) {
	oh, dek, err := r.readObjectHeader(objectNumber, password)
	if err != nil {
		return nil, err
	}
	return &ObjectReader{
		Header: oh,
		dek:    dek,
		chunks: newChunkSource(r, oh, dek),
	}, nil
}
