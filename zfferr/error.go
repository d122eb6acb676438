// Package zfferr defines the error taxonomy shared across the container engine. Every
// fallible operation in this module returns either a plain wrapped error (for I/O
// passthrough) or a *zfferr.Error carrying one of the Kind sentinels
// below, so callers can branch with errors.Is/errors.As regardless of which package raised it.
package zfferr

import "fmt"

// Kind classifies an Error without committing to its exact wrapped cause.
type Kind uint8

const (
	KindUnknown Kind = iota

	// Encoding
	KindHeaderDecodeMismatchIdentifier
	KindHeaderDecodeEncryptedHeader
	KindUnsupportedVersion
	KindMalformedHeader
	KindTruncatedRecord

	// Encryption
	KindMissingEncryptionHeader
	KindMissingEncryptionKey
	KindDecryptionOfEncryptionKey // wrong password - distinct, retryable with a new password
	KindInvalidEncryptionKeySize
	KindEncryptionError
	KindPBEError

	// Structural
	KindMissingSegment
	KindMissingMainFooter
	KindMissingObjectNumber
	KindMissingFileNumber
	KindMalformedSegment
	KindNoChunksLeft
	KindNoObjectsLeft
	KindNoFilesLeft
	KindMismatchObjectType
	KindPassiveObjectCycle

	// Flow control
	KindReadEOF
	KindInterruptedInputStream
	KindSegmentNotFinished

	// Policy
	KindInvalidOption
	KindInvalidChunkNumber
	KindNoSignatureFound
	KindUnknownMetadataExtendedType

	// Resource
	KindOutOfMemory
)

func (k Kind) String() string {
	switch k {
	case KindHeaderDecodeMismatchIdentifier:
		return "header decode: mismatched identifier"
	case KindHeaderDecodeEncryptedHeader:
		return "header decode: encrypted header"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindMalformedHeader:
		return "malformed header"
	case KindTruncatedRecord:
		return "truncated record"
	case KindMissingEncryptionHeader:
		return "missing encryption header"
	case KindMissingEncryptionKey:
		return "missing encryption key"
	case KindDecryptionOfEncryptionKey:
		return "decryption of encryption key failed (wrong password)"
	case KindInvalidEncryptionKeySize:
		return "invalid encryption key size"
	case KindEncryptionError:
		return "encryption error"
	case KindPBEError:
		return "password-based encryption error"
	case KindMissingSegment:
		return "missing segment"
	case KindMissingMainFooter:
		return "missing main footer"
	case KindMissingObjectNumber:
		return "missing object number"
	case KindMissingFileNumber:
		return "missing file number"
	case KindMalformedSegment:
		return "malformed segment"
	case KindNoChunksLeft:
		return "no chunks left"
	case KindNoObjectsLeft:
		return "no objects left"
	case KindNoFilesLeft:
		return "no files left"
	case KindMismatchObjectType:
		return "mismatched object type"
	case KindPassiveObjectCycle:
		return "passive object cycle detected"
	case KindReadEOF:
		return "read EOF"
	case KindInterruptedInputStream:
		return "interrupted input stream"
	case KindSegmentNotFinished:
		return "segment not finished"
	case KindInvalidOption:
		return "invalid option"
	case KindInvalidChunkNumber:
		return "invalid chunk number"
	case KindNoSignatureFound:
		return "no signature found"
	case KindUnknownMetadataExtendedType:
		return "unknown metadata extended type"
	case KindOutOfMemory:
		return "out of memory"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by this module. It always carries a Kind and
// optionally wraps an underlying cause (I/O error, codec error, ...).
type Error struct {
	Kind  Kind
	Cause error
	Msg   string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, zfferr.New(k)) match any *Error sharing the same Kind, without
// requiring the cause or message to match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a bare *Error of the given kind.
func New(k Kind) *Error { return &Error{Kind: k} }

// Newf constructs an *Error with a formatted message.
func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(k Kind, cause error) *Error { return &Error{Kind: k, Cause: cause} }

// Wrapf constructs an *Error of the given kind wrapping cause, with a formatted message.
func Wrapf(k Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: k, Cause: cause, Msg: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons against a bare Kind, matching any message/cause.
var (
	ErrHeaderDecodeMismatchIdentifier = New(KindHeaderDecodeMismatchIdentifier)
	ErrUnsupportedVersion             = New(KindUnsupportedVersion)
	ErrMissingEncryptionHeader        = New(KindMissingEncryptionHeader)
	ErrMissingEncryptionKey           = New(KindMissingEncryptionKey)
	ErrDecryptionOfEncryptionKey      = New(KindDecryptionOfEncryptionKey)
	ErrInvalidEncryptionKeySize       = New(KindInvalidEncryptionKeySize)
	ErrMissingSegment                 = New(KindMissingSegment)
	ErrMissingMainFooter              = New(KindMissingMainFooter)
	ErrMalformedSegment               = New(KindMalformedSegment)
	ErrNoChunksLeft                   = New(KindNoChunksLeft)
	ErrNoObjectsLeft                  = New(KindNoObjectsLeft)
	ErrNoFilesLeft                    = New(KindNoFilesLeft)
	ErrMismatchObjectType             = New(KindMismatchObjectType)
	ErrPassiveObjectCycle             = New(KindPassiveObjectCycle)
	ErrReadEOF                        = New(KindReadEOF)
	ErrInterruptedInputStream         = New(KindInterruptedInputStream)
	ErrSegmentNotFinished             = New(KindSegmentNotFinished)
	ErrInvalidOption                  = New(KindInvalidOption)
	ErrInvalidChunkNumber             = New(KindInvalidChunkNumber)
	ErrNoSignatureFound               = New(KindNoSignatureFound)
)
