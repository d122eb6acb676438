package segment

import (
	"crypto/ed25519"

	"github.com/zetaforensics/zff/internal/options"
)

// DefaultChunkmapSize is the byte-size target a side-map flushes at when no explicit
// WithChunkmapSize option is given.
const DefaultChunkmapSize = 32 * 1024

// Config holds the writer-wide options a Writer accepts at construction time.
type Config struct {
	UniqueIdentifier  int64
	TargetSegmentSize uint64 // 0 = unlimited (single segment)
	ChunkmapSize      uint64
	DescriptionNotes  string
	SignatureKey      ed25519.PrivateKey // stored only; the Writer does not read it
}

// Option configures a Config via the module's generic functional-options pattern.
type Option = options.Option[*Config]

// WithUniqueIdentifier fixes the container's unique_identifier; zero means "generate one
// randomly" and is applied by NewWriter if left unset.
func WithUniqueIdentifier(id int64) Option {
	return options.NoError(func(c *Config) { c.UniqueIdentifier = id })
}

// WithTargetSegmentSize bounds how many bytes the writer appends to one segment file before
// rolling over to the next.
func WithTargetSegmentSize(n uint64) Option {
	return options.NoError(func(c *Config) { c.TargetSegmentSize = n })
}

// WithChunkmapSize sets the byte-size target each of the six side-maps flushes at.
func WithChunkmapSize(n uint64) Option {
	return options.NoError(func(c *Config) { c.ChunkmapSize = n })
}

// WithDescriptionNotes sets the free-text note stored in the MainFooter.
func WithDescriptionNotes(s string) Option {
	return options.NoError(func(c *Config) { c.DescriptionNotes = s })
}

// WithSignatureKey stores an Ed25519 signing key in Config.SignatureKey. The Writer does not
// use it: no chunk or hash value is signed, and every written HashValue.Signature is empty.
func WithSignatureKey(key ed25519.PrivateKey) Option {
	return options.NoError(func(c *Config) { c.SignatureKey = key })
}
