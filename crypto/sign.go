package crypto

import (
	"crypto/ed25519"

	"github.com/zetaforensics/zff/zfferr"
)

// Signer attaches Ed25519 signatures to raw hash digests, used when a container is created
// with a signature_key option. A nil Signer is a valid "signatures disabled" state; callers
// check for it before signing.
type Signer struct {
	priv ed25519.PrivateKey
}

// NewSigner wraps an existing Ed25519 private key.
func NewSigner(priv ed25519.PrivateKey) *Signer { return &Signer{priv: priv} }

// GenerateSigner creates a fresh Ed25519 keypair and returns the Signer plus its public key,
// which callers persist out-of-band for later verification.
func GenerateSigner() (*Signer, ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, zfferr.Wrap(zfferr.KindEncryptionError, err)
	}
	return &Signer{priv: priv}, pub, nil
}

// Sign signs a raw hash digest, returning the detached signature.
func (s *Signer) Sign(digest []byte) []byte {
	return ed25519.Sign(s.priv, digest)
}

// Verify checks a detached signature over digest under pub.
func Verify(pub ed25519.PublicKey, digest, sig []byte) bool {
	return ed25519.Verify(pub, digest, sig)
}
