package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// AEAD wraps a keyed cipher.AEAD for one of the three supported algorithms. Callers derive
// the nonce with DeriveNonce and pass it through unchanged.
type AEAD struct {
	alg  format.EncryptionAlgorithm
	aead cipher.AEAD
}

// NewAEAD constructs an AEAD cipher for alg with the given data-encryption key. The key
// must be exactly alg.KeySize() bytes.
func NewAEAD(alg format.EncryptionAlgorithm, key []byte) (*AEAD, error) {
	if len(key) != alg.KeySize() {
		return nil, zfferr.Newf(zfferr.KindInvalidEncryptionKeySize,
			"%s requires a %d-byte key, got %d", alg, alg.KeySize(), len(key))
	}

	var (
		a   cipher.AEAD
		err error
	)
	switch alg {
	case format.EncryptionAES128GCM, format.EncryptionAES256GCM:
		block, aesErr := aes.NewCipher(key)
		if aesErr != nil {
			return nil, zfferr.Wrap(zfferr.KindEncryptionError, aesErr)
		}
		a, err = cipher.NewGCM(block)
	case format.EncryptionChaCha20Poly1305:
		a, err = chacha20poly1305.New(key)
	default:
		return nil, zfferr.Newf(zfferr.KindEncryptionError, "unknown algorithm %s", alg)
	}
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindEncryptionError, err)
	}

	return &AEAD{alg: alg, aead: a}, nil
}

// Seal encrypts plaintext under nonce, appending the AEAD tag, with no additional data.
func (c *AEAD) Seal(nonce [NonceSize]byte, plaintext []byte) []byte {
	return c.aead.Seal(nil, nonce[:], plaintext, nil)
}

// Open decrypts ciphertext||tag under nonce. A wrong key or corrupted/truncated ciphertext
// surfaces as zfferr.KindEncryptionError.
func (c *AEAD) Open(nonce [NonceSize]byte, ciphertext []byte) ([]byte, error) {
	pt, err := c.aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindEncryptionError, err)
	}
	return pt, nil
}

// SealWithTag encrypts plaintext and derives the nonce in one step from nonceValue/tag.
func (c *AEAD) SealWithTag(nonceValue uint64, tag format.NonceTag, plaintext []byte) []byte {
	return c.Seal(DeriveNonce(nonceValue, tag), plaintext)
}

// OpenWithTag decrypts ciphertext and derives the nonce in one step from nonceValue/tag.
func (c *AEAD) OpenWithTag(nonceValue uint64, tag format.NonceTag, ciphertext []byte) ([]byte, error) {
	return c.Open(DeriveNonce(nonceValue, tag), ciphertext)
}
