// Package format defines the small, dependency-free enums and bitfields shared by every
// other package in the container engine: compression and encryption algorithm identifiers,
// KDF/PBE schemes, object and file type tags, and chunk/side-map flag bits.
package format

import "fmt"

// CompressionType identifies the compression algorithm applied to a chunk or side-map
// payload. The zero value, CompressionNone, always round-trips unchanged.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionZstd
	CompressionS2
	CompressionLZ4
)

func (t CompressionType) String() string {
	switch t {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(t))
	}
}

// EncryptionAlgorithm identifies the AEAD cipher used to encrypt object-scope bytes.
type EncryptionAlgorithm uint8

const (
	EncryptionAES128GCM EncryptionAlgorithm = iota
	EncryptionAES256GCM
	EncryptionChaCha20Poly1305
)

func (a EncryptionAlgorithm) String() string {
	switch a {
	case EncryptionAES128GCM:
		return "aes-128-gcm"
	case EncryptionAES256GCM:
		return "aes-256-gcm"
	case EncryptionChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return fmt.Sprintf("EncryptionAlgorithm(%d)", uint8(a))
	}
}

// KeySize returns the data-encryption-key length, in bytes, required by a.
func (a EncryptionAlgorithm) KeySize() int {
	switch a {
	case EncryptionAES128GCM:
		return 16
	case EncryptionAES256GCM:
		return 32
	case EncryptionChaCha20Poly1305:
		return 32
	default:
		return 0
	}
}

// KDFScheme identifies the password-based key derivation function used to wrap the
// per-object data-encryption key.
type KDFScheme uint8

const (
	KDFPBKDF2SHA256 KDFScheme = iota
	KDFScrypt
	KDFArgon2id
)

func (k KDFScheme) String() string {
	switch k {
	case KDFPBKDF2SHA256:
		return "pbkdf2-sha256"
	case KDFScrypt:
		return "scrypt"
	case KDFArgon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("KDFScheme(%d)", uint8(k))
	}
}

// PBEScheme identifies the symmetric cipher used to wrap the data-encryption key once the
// KDF has derived key-wrapping bytes from the password.
type PBEScheme uint8

const (
	PBEAES128CBC PBEScheme = iota
	PBEAES256CBC
)

func (p PBEScheme) String() string {
	switch p {
	case PBEAES128CBC:
		return "aes-128-cbc"
	case PBEAES256CBC:
		return "aes-256-cbc"
	default:
		return fmt.Sprintf("PBEScheme(%d)", uint8(p))
	}
}

// KeySize returns the key-wrapping key length, in bytes, required by p.
func (p PBEScheme) KeySize() int {
	switch p {
	case PBEAES128CBC:
		return 16
	case PBEAES256CBC:
		return 32
	default:
		return 0
	}
}

// HashAlgorithm identifies a plaintext hash function rolled up into an object or file's
// HashHeader. xxhash64 is not listed here: it is always used for per-chunk integrity and is
// never a configurable HashHeader entry.
type HashAlgorithm uint8

const (
	HashSHA256 HashAlgorithm = iota
	HashSHA512
	HashSHA3_256
	HashBlake2b
	HashBlake3
)

func (h HashAlgorithm) String() string {
	switch h {
	case HashSHA256:
		return "sha256"
	case HashSHA512:
		return "sha512"
	case HashSHA3_256:
		return "sha3-256"
	case HashBlake2b:
		return "blake2b"
	case HashBlake3:
		return "blake3"
	default:
		return fmt.Sprintf("HashAlgorithm(%d)", uint8(h))
	}
}

// ObjectType classifies an Object's encoder/reader variant.
type ObjectType uint8

const (
	ObjectTypePhysical ObjectType = iota + 1
	ObjectTypeLogical
	ObjectTypeVirtual
	ObjectTypeEncrypted
)

func (o ObjectType) String() string {
	switch o {
	case ObjectTypePhysical:
		return "physical"
	case ObjectTypeLogical:
		return "logical"
	case ObjectTypeVirtual:
		return "virtual"
	case ObjectTypeEncrypted:
		return "encrypted"
	default:
		return fmt.Sprintf("ObjectType(%d)", uint8(o))
	}
}

// FileType classifies a logical-object FileHeader.
type FileType uint8

const (
	FileTypeFile FileType = iota + 1
	FileTypeDirectory
	FileTypeSymlink
	FileTypeHardlink
	FileTypeSpecial
)

func (f FileType) String() string {
	switch f {
	case FileTypeFile:
		return "file"
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	case FileTypeHardlink:
		return "hardlink"
	case FileTypeSpecial:
		return "special"
	default:
		return fmt.Sprintf("FileType(%d)", uint8(f))
	}
}

// SpecialFileType further classifies a FileTypeSpecial entry.
type SpecialFileType uint8

const (
	SpecialFileFifo SpecialFileType = iota
	SpecialFileChar
	SpecialFileBlock
)

func (s SpecialFileType) String() string {
	switch s {
	case SpecialFileFifo:
		return "fifo"
	case SpecialFileChar:
		return "char"
	case SpecialFileBlock:
		return "block"
	default:
		return fmt.Sprintf("SpecialFileType(%d)", uint8(s))
	}
}

// ChunkFlags is a bitfield describing how a chunk's payload should be interpreted.
type ChunkFlags uint8

const (
	ChunkFlagCompression ChunkFlags = 1 << iota
	ChunkFlagSameBytes
	ChunkFlagDuplicate
	ChunkFlagEncryption
)

func (f ChunkFlags) Has(bit ChunkFlags) bool { return f&bit != 0 }

func (f ChunkFlags) String() string {
	s := ""
	if f.Has(ChunkFlagCompression) {
		s += "C"
	}
	if f.Has(ChunkFlagSameBytes) {
		s += "S"
	}
	if f.Has(ChunkFlagDuplicate) {
		s += "D"
	}
	if f.Has(ChunkFlagEncryption) {
		s += "E"
	}
	if s == "" {
		return "-"
	}
	return s
}

// NonceTag is the 1-byte class tag OR-ed into the final byte of a 96-bit AEAD nonce to
// distinguish message classes that would otherwise share a numeric id. The bit patterns are
// part of the on-disk contract and must never be derived from enum ordinals.
type NonceTag uint8

const (
	NonceTagChunkPayload      NonceTag = 0b0000_0000
	NonceTagChunkOffsetMap    NonceTag = 0b0000_0001
	NonceTagVirtualMapping    NonceTag = 0b0000_0010
	NonceTagChunkSizeMap      NonceTag = 0b0000_0011
	NonceTagFileHeader        NonceTag = 0b0000_0100
	NonceTagChunkFlagsMap     NonceTag = 0b0000_0111
	NonceTagFileFooter        NonceTag = 0b0000_1000
	NonceTagChunkXxHashMap    NonceTag = 0b0000_1111
	NonceTagObjectHeader      NonceTag = 0b0001_0000
	NonceTagChunkSameByteMap  NonceTag = 0b0001_1111
	NonceTagObjectFooter      NonceTag = 0b0010_0000
	NonceTagChunkDedupMap     NonceTag = 0b0011_1111
	NonceTagVirtualObjectMap  NonceTag = 0b0100_0000
)
