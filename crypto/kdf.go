package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// KDFParams carries the per-scheme tuning knobs stored alongside a PBEHeader. Fields unused
// by the selected scheme are ignored.
type KDFParams struct {
	PBKDF2Iterations uint32
	ScryptN          uint32
	ScryptR          uint32
	ScryptP          uint32
	Argon2Time       uint32
	Argon2Memory     uint32
	Argon2Threads    uint8
}

// DefaultKDFParams returns conservative, widely-used cost parameters for each scheme.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		PBKDF2Iterations: 210_000,
		ScryptN:          1 << 15,
		ScryptR:          8,
		ScryptP:          1,
		Argon2Time:       3,
		Argon2Memory:     64 * 1024,
		Argon2Threads:    4,
	}
}

// DeriveKey runs the requested KDF over password and salt, producing keyLen bytes of
// key-wrapping material.
func DeriveKey(scheme format.KDFScheme, params KDFParams, password, salt []byte, keyLen int) ([]byte, error) {
	switch scheme {
	case format.KDFPBKDF2SHA256:
		return pbkdf2.Key(password, salt, int(params.PBKDF2Iterations), keyLen, sha256.New), nil
	case format.KDFScrypt:
		return scrypt.Key(password, salt, int(params.ScryptN), int(params.ScryptR), int(params.ScryptP), keyLen)
	case format.KDFArgon2id:
		return argon2.IDKey(password, salt, params.Argon2Time, params.Argon2Memory, params.Argon2Threads, uint32(keyLen)), nil
	default:
		return nil, zfferr.Newf(zfferr.KindInvalidOption, "unknown KDF scheme %s", scheme)
	}
}
