package header

import (
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
)

// HashValue is one plaintext digest rolled up into a HashHeader, with an optional detached
// Ed25519 signature over the digest.
type HashValue struct {
	Algorithm format.HashAlgorithm
	Digest    []byte
	Signature []byte // nil when signing is disabled
}

// HashHeader carries the configured set of plaintext hashes for an object or file (spec
// §4.1 "Hashing").
type HashHeader struct {
	Values []HashValue
}

func (h *HashHeader) Bytes() []byte {
	w := encoding.NewWriter(64)
	w.SeqHeader(len(h.Values))
	for _, v := range h.Values {
		w.PutUint8(uint8(v.Algorithm))
		w.PutBytes(v.Digest)
		w.PutBytes(v.Signature)
	}
	return encoding.WriteRecord(format.IdentHashHeader, format.CurrentVersion, w.Bytes())
}

func ParseHashHeader(b []byte) (*HashHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentHashHeader)
	if err != nil {
		return nil, err
	}
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	h := &HashHeader{Values: make([]HashValue, 0, n)}
	for i := 0; i < n; i++ {
		alg, err := r.GetUint8()
		if err != nil {
			return nil, err
		}
		digest, err := r.GetBytes()
		if err != nil {
			return nil, err
		}
		sig, err := r.GetBytes()
		if err != nil {
			return nil, err
		}
		h.Values = append(h.Values, HashValue{Algorithm: format.HashAlgorithm(alg), Digest: digest, Signature: sig})
	}
	return h, nil
}
