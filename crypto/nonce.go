// Package crypto implements the C1 cryptographic half of the codec primitives: AEAD chunk
// and header encryption, password-based key wrap, nonce derivation, plaintext hash-family
// dispatch, and Ed25519 signing over hash digests.
package crypto

import (
	"encoding/binary"

	"github.com/zetaforensics/zff/format"
)

// NonceSize is the size, in bytes, of every AEAD nonce this module produces: a 96-bit
// (12-byte) nonce as required by AES-GCM and ChaCha20-Poly1305.
const NonceSize = 12

// DeriveNonce builds the deterministic 96-bit AEAD nonce for a message of the given class:
// nonce_value (little-endian u64) followed by four zero bytes, with the final byte OR-ed
// with the class's tag bits. The tag bits are opaque constants — see format.NonceTag —
// and must never be derived from enum
// ordinals.
func DeriveNonce(nonceValue uint64, tag format.NonceTag) [NonceSize]byte {
	var n [NonceSize]byte
	binary.LittleEndian.PutUint64(n[:8], nonceValue)
	// bytes [8:11] stay zero; the tag is OR-ed into the final byte only.
	n[11] |= byte(tag)
	return n
}
