package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// NewPlaintextHasher returns a streaming hash.Hash for one of the configurable plaintext
// hash families rolled up into a HashHeader. xxhash64 is intentionally absent here: it is
// always used for per-chunk integrity via IntegrityHasher, never configurable.
func NewPlaintextHasher(alg format.HashAlgorithm) (hash.Hash, error) {
	switch alg {
	case format.HashSHA256:
		return sha256.New(), nil
	case format.HashSHA512:
		return sha512.New(), nil
	case format.HashSHA3_256:
		return sha3.New256(), nil
	case format.HashBlake2b:
		h, err := blake2b.New512(nil)
		if err != nil {
			return nil, zfferr.Wrap(zfferr.KindEncryptionError, err)
		}
		return h, nil
	case format.HashBlake3:
		return newBlake3Hasher(), nil
	default:
		return nil, zfferr.Newf(zfferr.KindInvalidOption, "unknown hash algorithm %s", alg)
	}
}

// IntegrityHasher computes the per-chunk xxhash64 integrity hash. It is a thin wrapper so
// callers in chunk/ never import cespare/xxhash directly.
type IntegrityHasher struct{}

// Sum64 returns the xxhash64 digest of data.
func (IntegrityHasher) Sum64(data []byte) uint64 { return xxhash.Sum64(data) }

// DedupHash computes the Blake3 digest used to detect duplicate chunk plaintexts (spec
// §4.3). Blake3 is chosen (over the plaintext HashHeader's SHA/Blake2 family) for raw
// throughput on the hot dedup path, matching the corpus's convention of reserving Blake3 for
// high-volume content-addressing.
func DedupHash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// blake3Hasher adapts blake3.Sum256 to the hash.Hash interface so it can be registered in
// NewPlaintextHasher alongside the stdlib hash families. blake3.Sum256 is a one-shot digest
// rather than a streaming hasher, so Write buffers the bytes and Sum hashes everything written so far.
type blake3Hasher struct {
	buf []byte
}

func newBlake3Hasher() *blake3Hasher { return &blake3Hasher{} }

func (h *blake3Hasher) Write(p []byte) (int, error) {
	h.buf = append(h.buf, p...)
	return len(p), nil
}

func (h *blake3Hasher) Sum(b []byte) []byte {
	sum := blake3.Sum256(h.buf)
	return append(b, sum[:]...)
}

func (h *blake3Hasher) Reset()         { h.buf = h.buf[:0] }
func (h *blake3Hasher) Size() int      { return 32 }
func (h *blake3Hasher) BlockSize() int { return 64 }
