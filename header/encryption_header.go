package header

import (
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
)

// EncryptionHeader is embedded in an ObjectHeader when the object is encrypted. It names the
// AEAD algorithm, the PBE parameters needed to unwrap the
// data-encryption key, the wrapped key itself, and a HeaderNonce value stored with them. The
// encrypted ObjectHeader body is sealed with nonce_value = object_number (see
// ObjectHeader.EncodeEncrypted), not with HeaderNonce.
type EncryptionHeader struct {
	Algorithm  format.EncryptionAlgorithm
	PBE        *PBEHeader
	WrappedKey []byte
	HeaderNonce uint64
}

func (h *EncryptionHeader) Bytes() []byte {
	w := encoding.NewWriter(128)
	w.PutUint8(uint8(h.Algorithm))
	w.PutBytes(h.PBE.Bytes())
	w.PutBytes(h.WrappedKey)
	w.PutUint64(h.HeaderNonce)
	return encoding.WriteRecord(format.IdentEncryptionHeader, format.CurrentVersion, w.Bytes())
}

func ParseEncryptionHeader(b []byte) (*EncryptionHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentEncryptionHeader)
	if err != nil {
		return nil, err
	}
	h := &EncryptionHeader{}
	alg, err := r.GetUint8()
	if err != nil {
		return nil, err
	}
	h.Algorithm = format.EncryptionAlgorithm(alg)

	pbeBytes, err := r.GetBytes()
	if err != nil {
		return nil, err
	}
	if h.PBE, err = ParsePBEHeader(pbeBytes); err != nil {
		return nil, err
	}
	if h.WrappedKey, err = r.GetBytes(); err != nil {
		return nil, err
	}
	if h.HeaderNonce, err = r.GetUint64(); err != nil {
		return nil, err
	}
	return h, nil
}
