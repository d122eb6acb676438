package footer

import (
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/zfferr"
)

// FileFooter closes one file within a Logical object's file tree: acquisition timestamps,
// the chunk range the file's content occupies, its length, and its
// aggregated plaintext hashes. A Directory, Hardlink, or zero-content file still carries a
// FileFooter with NumberOfChunks == 0.
type FileFooter struct {
	FileNumber       uint64
	AcquisitionStart int64
	AcquisitionEnd   int64
	FirstChunkNumber uint64
	NumberOfChunks   uint64
	LengthOfData     uint64
	Hash             *header.HashHeader
}

func (f *FileFooter) bodyBytes() []byte {
	w := encoding.NewWriter(128)
	w.PutInt64(f.AcquisitionStart)
	w.PutInt64(f.AcquisitionEnd)
	w.PutUint64(f.FirstChunkNumber)
	w.PutUint64(f.NumberOfChunks)
	w.PutUint64(f.LengthOfData)
	w.PutBytes(f.Hash.Bytes())
	return w.Bytes()
}

// Bytes encodes the plaintext wire form.
func (f *FileFooter) Bytes() []byte {
	w := encoding.NewWriter(192)
	w.PutUint64(f.FileNumber)
	w.PutRaw(f.bodyBytes())
	return encoding.WriteRecord(format.IdentFileFooter, format.CurrentVersion, w.Bytes())
}

// ParseFileFooter decodes a plaintext FileFooter record.
func ParseFileFooter(b []byte) (*FileFooter, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentFileFooter)
	if err != nil {
		return nil, err
	}
	f := &FileFooter{}
	if f.FileNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if err := f.parseBody(r); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileFooter) parseBody(r *encoding.Reader) (err error) {
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

// EncodeEncrypted AEAD-encrypts everything but file_number under dek, nonce tag
// NonceTagFileFooter with nonce_value = file_number.
func (f *FileFooter) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.SealWithTag(f.FileNumber, format.NonceTagFileFooter, f.bodyBytes())

	w := encoding.NewWriter(192)
	w.PutUint64(f.FileNumber)
	w.PutBytes(ciphertext)
	return encoding.WriteRecord(format.IdentFileFooterEncrypted, format.CurrentVersion, w.Bytes()), nil
}

// ParseEncryptedFileFooter decodes an encrypted FileFooter record given the object's already
// unwrapped data-encryption key.
func ParseEncryptedFileFooter(b []byte, alg format.EncryptionAlgorithm, dek []byte) (*FileFooter, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentFileFooterEncrypted)
	if err != nil {
		return nil, err
	}
	f := &FileFooter{}
	if f.FileNumber, err = r.GetUint64(); err != nil {
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
	plaintext, err := aead.OpenWithTag(f.FileNumber, format.NonceTagFileFooter, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	if err := f.parseBody(encoding.NewReader(plaintext)); err != nil {
		return nil, err
	}
	return f, nil
}
