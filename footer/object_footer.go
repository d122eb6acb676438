package footer

import (
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/zfferr"
)

// ObjectFooterPhysical closes a Physical object: acquisition timestamps, the chunk range it
// wrote, the object's uncompressed length, and its aggregated plaintext
// hashes.
type ObjectFooterPhysical struct {
	ObjectNumber      uint64
	AcquisitionStart  int64
	AcquisitionEnd    int64
	FirstChunkNumber  uint64
	NumberOfChunks    uint64
	LengthOfData      uint64
	Hash              *header.HashHeader
}

func (f *ObjectFooterPhysical) bodyBytes() []byte {
	w := encoding.NewWriter(128)
	w.PutInt64(f.AcquisitionStart)
	w.PutInt64(f.AcquisitionEnd)
	w.PutUint64(f.FirstChunkNumber)
	w.PutUint64(f.NumberOfChunks)
	w.PutUint64(f.LengthOfData)
	w.PutBytes(f.Hash.Bytes())
	return w.Bytes()
}

func (f *ObjectFooterPhysical) Bytes() []byte {
	w := encoding.NewWriter(192)
	w.PutUint64(f.ObjectNumber)
	w.PutRaw(f.bodyBytes())
	return encoding.WriteRecord(format.IdentObjectFooterPhysical, format.CurrentVersion, w.Bytes())
}

func ParseObjectFooterPhysical(b []byte) (*ObjectFooterPhysical, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectFooterPhysical)
	if err != nil {
		return nil, err
	}
	f := &ObjectFooterPhysical{}
	if f.ObjectNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if err := f.parseBody(r); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *ObjectFooterPhysical) parseBody(r *encoding.Reader) (err error) {
	if f.AcquisitionStart, err = r.GetInt64(); err != nil {
		return err
	}
	if f.AcquisitionEnd, err = r.GetInt64(); err != nil {
		return err
	}
	if f.FirstChunkNumber, err = r.GetUint64(); err != nil {
		return err
	}
	if f.NumberOfChunks, err = r.GetUint64(); err != nil {
		return err
	}
	if f.LengthOfData, err = r.GetUint64(); err != nil {
		return err
	}
	hashBytes, err := r.GetBytes()
	if err != nil {
		return err
	}
	f.Hash, err = header.ParseHashHeader(hashBytes)
	return err
}

// EncodeEncrypted AEAD-encrypts everything but object_number under dek, nonce tag
// NonceTagObjectFooter with nonce_value = object_number, the same two-form rule every
// header/footer record follows.
func (f *ObjectFooterPhysical) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.SealWithTag(f.ObjectNumber, format.NonceTagObjectFooter, f.bodyBytes())

	w := encoding.NewWriter(192)
	w.PutUint64(f.ObjectNumber)
	w.PutBytes(ciphertext)
	return encoding.WriteRecord(format.IdentObjectFooterPhysicalEncrypted, format.CurrentVersion, w.Bytes()), nil
}

func ParseEncryptedObjectFooterPhysical(b []byte, alg format.EncryptionAlgorithm, dek []byte) (*ObjectFooterPhysical, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectFooterPhysicalEncrypted)
	if err != nil {
		return nil, err
	}
	f := &ObjectFooterPhysical{}
	if f.ObjectNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	ciphertext, err := r.GetBytes()
	if err != nil {
		return nil, err
	}
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.OpenWithTag(f.ObjectNumber, format.NonceTagObjectFooter, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	if err := f.parseBody(encoding.NewReader(plaintext)); err != nil {
		return nil, err
	}
	return f, nil
}

// FileLocation is where a logical object's FileHeader/FileFooter record lives: identified by
// the segment it was written to plus the byte offset within that segment.
type FileLocation struct {
	Segment uint64
	Offset  uint64
}

// ObjectFooterLogical closes a Logical object: the root file numbers of its tree (those with
// no parent) and the location of every file header/footer the encoder emitted while walking
// its file queue.
type ObjectFooterLogical struct {
	ObjectNumber        uint64
	RootFileNumbers     []uint64
	FileHeaderLocations map[uint64]FileLocation
	FileFooterLocations map[uint64]FileLocation
}

func putFileLocationMap(w *encoding.Writer, m map[uint64]FileLocation) {
	w.SeqHeader(len(m))
	for fileNumber, loc := range m {
		w.PutUint64(fileNumber)
		w.PutUint64(loc.Segment)
		w.PutUint64(loc.Offset)
	}
}

func getFileLocationMap(r *encoding.Reader) (map[uint64]FileLocation, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := make(map[uint64]FileLocation, n)
	for i := 0; i < n; i++ {
		fileNumber, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		segment, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		offset, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		m[fileNumber] = FileLocation{Segment: segment, Offset: offset}
	}
	return m, nil
}

func (f *ObjectFooterLogical) bodyBytes() []byte {
	w := encoding.NewWriter(128)
	w.PutUint64Slice(f.RootFileNumbers)
	putFileLocationMap(w, f.FileHeaderLocations)
	putFileLocationMap(w, f.FileFooterLocations)
	return w.Bytes()
}

func (f *ObjectFooterLogical) Bytes() []byte {
	w := encoding.NewWriter(192)
	w.PutUint64(f.ObjectNumber)
	w.PutRaw(f.bodyBytes())
	return encoding.WriteRecord(format.IdentObjectFooterLogical, format.CurrentVersion, w.Bytes())
}

func ParseObjectFooterLogical(b []byte) (*ObjectFooterLogical, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectFooterLogical)
	if err != nil {
		return nil, err
	}
	f := &ObjectFooterLogical{}
	if f.ObjectNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if err := f.parseBody(r); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *ObjectFooterLogical) parseBody(r *encoding.Reader) (err error) {
	if f.RootFileNumbers, err = r.GetUint64Slice(); err != nil {
		return err
	}
	if f.FileHeaderLocations, err = getFileLocationMap(r); err != nil {
		return err
	}
	if f.FileFooterLocations, err = getFileLocationMap(r); err != nil {
		return err
	}
	return nil
}

func (f *ObjectFooterLogical) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.SealWithTag(f.ObjectNumber, format.NonceTagObjectFooter, f.bodyBytes())

	w := encoding.NewWriter(192)
	w.PutUint64(f.ObjectNumber)
	w.PutBytes(ciphertext)
	return encoding.WriteRecord(format.IdentObjectFooterLogicalEncrypted, format.CurrentVersion, w.Bytes()), nil
}

func ParseEncryptedObjectFooterLogical(b []byte, alg format.EncryptionAlgorithm, dek []byte) (*ObjectFooterLogical, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectFooterLogicalEncrypted)
	if err != nil {
		return nil, err
	}
	f := &ObjectFooterLogical{}
	if f.ObjectNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	ciphertext, err := r.GetBytes()
	if err != nil {
		return nil, err
	}
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.OpenWithTag(f.ObjectNumber, format.NonceTagObjectFooter, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	if err := f.parseBody(encoding.NewReader(plaintext)); err != nil {
		return nil, err
	}
	return f, nil
}

// ObjectFooterVirtual closes a Virtual object: the passive object numbers it composes, plus a
// pointer to the root of its (possibly layered) offset mapping tree.
type ObjectFooterVirtual struct {
	ObjectNumber          uint64
	PassiveObjectNumbers  []uint64
	RootMapOffset         uint64
}

func (f *ObjectFooterVirtual) bodyBytes() []byte {
	w := encoding.NewWriter(64)
	w.PutUint64Slice(f.PassiveObjectNumbers)
	w.PutUint64(f.RootMapOffset)
	return w.Bytes()
}

func (f *ObjectFooterVirtual) Bytes() []byte {
	w := encoding.NewWriter(128)
	w.PutUint64(f.ObjectNumber)
	w.PutRaw(f.bodyBytes())
	return encoding.WriteRecord(format.IdentObjectFooterVirtual, format.CurrentVersion, w.Bytes())
}

func ParseObjectFooterVirtual(b []byte) (*ObjectFooterVirtual, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectFooterVirtual)
	if err != nil {
		return nil, err
	}
	f := &ObjectFooterVirtual{}
	if f.ObjectNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if err := f.parseBody(r); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *ObjectFooterVirtual) parseBody(r *encoding.Reader) (err error) {
	if f.PassiveObjectNumbers, err = r.GetUint64Slice(); err != nil {
		return err
	}
	if f.RootMapOffset, err = r.GetUint64(); err != nil {
		return err
	}
	return nil
}

func (f *ObjectFooterVirtual) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.SealWithTag(f.ObjectNumber, format.NonceTagObjectFooter, f.bodyBytes())

	w := encoding.NewWriter(128)
	w.PutUint64(f.ObjectNumber)
	w.PutBytes(ciphertext)
	return encoding.WriteRecord(format.IdentObjectFooterVirtualEncrypted, format.CurrentVersion, w.Bytes()), nil
}

func ParseEncryptedObjectFooterVirtual(b []byte, alg format.EncryptionAlgorithm, dek []byte) (*ObjectFooterVirtual, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectFooterVirtualEncrypted)
	if err != nil {
		return nil, err
	}
	f := &ObjectFooterVirtual{}
	if f.ObjectNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	ciphertext, err := r.GetBytes()
	if err != nil {
		return nil, err
	}
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.OpenWithTag(f.ObjectNumber, format.NonceTagObjectFooter, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	if err := f.parseBody(encoding.NewReader(plaintext)); err != nil {
		return nil, err
	}
	return f, nil
}
