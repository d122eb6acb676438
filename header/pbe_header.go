package header

import (
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
)

// PBEHeader carries everything needed to re-derive the key-wrapping key from a password:
// the KDF scheme and its cost parameters, the PBE cipher scheme, the salt, and the IV used
// to wrap the per-object data-encryption key.
type PBEHeader struct {
	KDFScheme format.KDFScheme
	PBEScheme format.PBEScheme
	Params    crypto.KDFParams
	Salt      []byte
	IV        []byte
}

func (h *PBEHeader) Bytes() []byte {
	w := encoding.NewWriter(64)
	w.PutUint8(uint8(h.KDFScheme))
	w.PutUint8(uint8(h.PBEScheme))
	w.PutUint32(h.Params.PBKDF2Iterations)
	w.PutUint32(h.Params.ScryptN)
	w.PutUint32(h.Params.ScryptR)
	w.PutUint32(h.Params.ScryptP)
	w.PutUint32(h.Params.Argon2Time)
	w.PutUint32(h.Params.Argon2Memory)
	w.PutUint8(h.Params.Argon2Threads)
	w.PutBytes(h.Salt)
	w.PutBytes(h.IV)
	return encoding.WriteRecord(format.IdentPBEHeader, format.CurrentVersion, w.Bytes())
}

func ParsePBEHeader(b []byte) (*PBEHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentPBEHeader)
	if err != nil {
		return nil, err
	}
	h := &PBEHeader{}
	kdf, err := r.GetUint8()
	if err != nil {
		return nil, err
	}
	h.KDFScheme = format.KDFScheme(kdf)
	pbe, err := r.GetUint8()
	if err != nil {
		return nil, err
	}
	h.PBEScheme = format.PBEScheme(pbe)
	if h.Params.PBKDF2Iterations, err = r.GetUint32(); err != nil {
		return nil, err
	}
	if h.Params.ScryptN, err = r.GetUint32(); err != nil {
		return nil, err
	}
	if h.Params.ScryptR, err = r.GetUint32(); err != nil {
		return nil, err
	}
	if h.Params.ScryptP, err = r.GetUint32(); err != nil {
		return nil, err
	}
	if h.Params.Argon2Time, err = r.GetUint32(); err != nil {
		return nil, err
	}
	if h.Params.Argon2Memory, err = r.GetUint32(); err != nil {
		return nil, err
	}
	if h.Params.Argon2Threads, err = r.GetUint8(); err != nil {
		return nil, err
	}
	if h.Salt, err = r.GetBytes(); err != nil {
		return nil, err
	}
	if h.IV, err = r.GetBytes(); err != nil {
		return nil, err
	}
	return h, nil
}
