package header

import (
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// ObjectHeader precedes every object's chunk stream. When Encryption is non-nil the object's
// chunk payloads, side-maps, footer, and (for logical objects) file headers/footers are all
// AEAD-encrypted under the data-encryption key that Encryption wraps; ObjectHeader itself
// still has a plaintext and an encrypted wire form, see EncodeEncrypted/DecodeEncrypted
// below.
type ObjectHeader struct {
	ObjectNumber     uint64
	ObjectType       format.ObjectType
	ChunkSize        uint64
	Compression      *CompressionHeader
	Encryption       *EncryptionHeader // nil when the object is not encrypted
	Hash             *HashHeader
	DescriptionNotes string
}

func (h *ObjectHeader) bodyBytes() []byte {
	w := encoding.NewWriter(128)
	w.PutUint8(uint8(h.ObjectType))
	w.PutUint64(h.ChunkSize)
	w.PutBytes(h.Compression.Bytes())
	w.PutBytes(h.Hash.Bytes())
	w.PutString(h.DescriptionNotes)
	return w.Bytes()
}

// Bytes encodes the plaintext wire form: object_number, version, and the rest of the fields
// framed normally. Used when the object declares no encryption.
func (h *ObjectHeader) Bytes() []byte {
	w := encoding.NewWriter(256)
	w.PutUint64(h.ObjectNumber)
	w.PutRaw(h.bodyBytes())
	return encoding.WriteRecord(format.IdentObjectHeader, format.CurrentVersion, w.Bytes())
}

// ParseObjectHeader decodes a plaintext ObjectHeader record.
func ParseObjectHeader(b []byte) (*ObjectHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectHeader)
	if err != nil {
		return nil, err
	}
	h := &ObjectHeader{}
	if h.ObjectNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if err := h.parseBody(r); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *ObjectHeader) parseBody(r *encoding.Reader) error {
	ot, err := r.GetUint8()
	if err != nil {
		return err
	}
	h.ObjectType = format.ObjectType(ot)
	if h.ChunkSize, err = r.GetUint64(); err != nil {
		return err
	}
	compBytes, err := r.GetBytes()
	if err != nil {
		return err
	}
	if h.Compression, err = ParseCompressionHeader(compBytes); err != nil {
		return err
	}
	hashBytes, err := r.GetBytes()
	if err != nil {
		return err
	}
	if h.Hash, err = ParseHashHeader(hashBytes); err != nil {
		return err
	}
	if h.DescriptionNotes, err = r.GetString(); err != nil {
		return err
	}
	return nil
}

// EncodeEncrypted produces the two-form encrypted wire layout: object_number and version in
// the clear (so a reader can locate the matching EncryptionHeader before any key material
// exists), followed by the cleartext EncryptionHeader itself, followed by the remaining
// fields AEAD-encrypted under dek with the ObjectHeader nonce tag, nonce_value = object_number.
func (h *ObjectHeader) EncodeEncrypted(dek []byte) ([]byte, error) {
	aead, err := crypto.NewAEAD(h.Encryption.Algorithm, dek)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.SealWithTag(h.ObjectNumber, format.NonceTagObjectHeader, h.bodyBytes())

	w := encoding.NewWriter(256)
	w.PutUint64(h.ObjectNumber)
	w.PutBytes(h.Encryption.Bytes())
	w.PutBytes(ciphertext)
	return encoding.WriteRecord(format.IdentObjectHeaderEncrypted, format.CurrentVersion, w.Bytes()), nil
}

// PeekEncryptedObjectHeader decodes only the cleartext prefix (object_number and
// EncryptionHeader) of an encrypted ObjectHeader record, without requiring a password. This
// is what lets a reader discover an object's encryption parameters before attempting to
// unwrap its key.
func PeekEncryptedObjectHeader(b []byte) (objectNumber uint64, enc *EncryptionHeader, rest *encoding.Reader, err error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentObjectHeaderEncrypted)
	if err != nil {
		return 0, nil, nil, err
	}
	if objectNumber, err = r.GetUint64(); err != nil {
		return 0, nil, nil, err
	}
	encBytes, err := r.GetBytes()
	if err != nil {
		return 0, nil, nil, err
	}
	if enc, err = ParseEncryptionHeader(encBytes); err != nil {
		return 0, nil, nil, err
	}
	return objectNumber, enc, r, nil
}

// DecodeEncrypted finishes decoding an encrypted ObjectHeader once dek (the unwrapped
// data-encryption key) is available. A wrong password is usually caught earlier, by the PBE
// (AES-CBC) unwrap step that produced dek; a wrong dek that reaches this call fails the AEAD
// open and is reported as zfferr.KindDecryptionOfEncryptionKey.
func DecodeEncrypted(objectNumber uint64, enc *EncryptionHeader, rest *encoding.Reader, dek []byte) (*ObjectHeader, error) {
	aead, err := crypto.NewAEAD(enc.Algorithm, dek)
	if err != nil {
		return nil, err
	}
	ciphertext, err := rest.GetBytes()
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.OpenWithTag(objectNumber, format.NonceTagObjectHeader, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}

	h := &ObjectHeader{ObjectNumber: objectNumber, Encryption: enc}
	if err := h.parseBody(encoding.NewReader(plaintext)); err != nil {
		return nil, err
	}
	return h, nil
}
