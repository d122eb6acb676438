package header

import (
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// FileHeader describes one entry of a logical object's file tree. Special per-type content
// is carried in MetadataExt rather than as dedicated struct fields,
// mirroring original_source/file_header.rs: a Symlink stores its target under
// "symlink_target", a Hardlink stores the canonical file number under "hardlink_target", and
// a SpecialFile stores its SpecialFileType and device major/minor under "special_type",
// "device_major", "device_minor".
type FileHeader struct {
	FileNumber       uint64
	FileType         format.FileType
	Filename         string
	ParentFileNumber uint64
	MetadataExt      map[string]encoding.ExtValue
}

func (h *FileHeader) bodyBytes() []byte {
	w := encoding.NewWriter(128 + len(h.Filename))
	w.PutUint8(uint8(h.FileType))
	w.PutString(h.Filename)
	w.PutUint64(h.ParentFileNumber)
	w.PutExtMap(h.MetadataExt)
	return w.Bytes()
}

// Bytes encodes the plaintext wire form.
func (h *FileHeader) Bytes() []byte {
	w := encoding.NewWriter(256)
	w.PutUint64(h.FileNumber)
	w.PutRaw(h.bodyBytes())
	return encoding.WriteRecord(format.IdentFileHeader, format.CurrentVersion, w.Bytes())
}

// ParseFileHeader decodes a plaintext FileHeader record.
func ParseFileHeader(b []byte) (*FileHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentFileHeader)
	if err != nil {
		return nil, err
	}
	h := &FileHeader{}
	if h.FileNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if err := h.parseBody(r); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *FileHeader) parseBody(r *encoding.Reader) error {
	ft, err := r.GetUint8()
	if err != nil {
		return err
	}
	h.FileType = format.FileType(ft)
	if h.Filename, err = r.GetString(); err != nil {
		return err
	}
	if h.ParentFileNumber, err = r.GetUint64(); err != nil {
		return err
	}
	if h.MetadataExt, err = r.GetExtMap(); err != nil {
		return err
	}
	return nil
}

// EncodeEncrypted AEAD-encrypts everything but file_number under dek, nonce tag
// NonceTagFileHeader with nonce_value = file_number.
func (h *FileHeader) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.SealWithTag(h.FileNumber, format.NonceTagFileHeader, h.bodyBytes())

	w := encoding.NewWriter(256)
	w.PutUint64(h.FileNumber)
	w.PutBytes(ciphertext)
	return encoding.WriteRecord(format.IdentFileHeaderEncrypted, format.CurrentVersion, w.Bytes()), nil
}

// ParseEncryptedFileHeader decodes an encrypted FileHeader record given the object's
// already-unwrapped data-encryption key.
func ParseEncryptedFileHeader(b []byte, alg format.EncryptionAlgorithm, dek []byte) (*FileHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentFileHeaderEncrypted)
	if err != nil {
		return nil, err
	}
	h := &FileHeader{}
	if h.FileNumber, err = r.GetUint64(); err != nil {
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
	plaintext, err := aead.OpenWithTag(h.FileNumber, format.NonceTagFileHeader, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	if err := h.parseBody(encoding.NewReader(plaintext)); err != nil {
		return nil, err
	}
	return h, nil
}
