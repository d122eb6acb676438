// Package encoding implements the framed value codec: little-endian fixed-width scalars,
// length-prefixed bytes/strings, count-prefixed
// sequences/mappings, the tagged MetadataExtendedValue union, and the generic
// identifier/length/version record framing shared by every header and footer type.
package encoding

import (
	"github.com/zetaforensics/zff/endian"
	"github.com/zetaforensics/zff/internal/pool"
)

var le = endian.GetLittleEndianEngine()

// Writer appends typed values to a growable byte buffer in the little-endian,
// length-prefixed layout shared by every record type. Writer is not safe for concurrent use.
type Writer struct {
	buf *pool.ByteBuffer
}

// NewWriter returns a Writer backed by a freshly allocated buffer of the given hint size.
func NewWriter(sizeHint int) *Writer {
	if sizeHint <= 0 {
		sizeHint = 256
	}
	return &Writer{buf: pool.NewByteBuffer(sizeHint)}
}

// Bytes returns the accumulated encoded bytes. The returned slice aliases the Writer's
// internal buffer; callers that need an independent copy should clone it.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) raw(b []byte) { w.buf.MustWrite(b) }

// PutRaw appends b verbatim, with no length prefix. Used when the caller already has a
// fully framed sub-record (e.g. a nested header) and wants to embed it as-is.
func (w *Writer) PutRaw(b []byte) { w.raw(b) }

func (w *Writer) PutUint8(v uint8)   { w.raw([]byte{v}) }
func (w *Writer) PutInt8(v int8)     { w.PutUint8(uint8(v)) }
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}
}

func (w *Writer) PutUint16(v uint16) { w.buf.B = le.AppendUint16(w.buf.B, v) }
func (w *Writer) PutInt16(v int16)   { w.PutUint16(uint16(v)) }
func (w *Writer) PutUint32(v uint32) { w.buf.B = le.AppendUint32(w.buf.B, v) }
func (w *Writer) PutInt32(v int32)   { w.PutUint32(uint32(v)) }
func (w *Writer) PutUint64(v uint64) { w.buf.B = le.AppendUint64(w.buf.B, v) }
func (w *Writer) PutInt64(v int64)   { w.PutUint64(uint64(v)) }

func (w *Writer) PutFloat32(v float32) { w.PutUint32(mathFloat32bits(v)) }
func (w *Writer) PutFloat64(v float64) { w.PutUint64(mathFloat64bits(v)) }

// PutBytes writes a u64 length prefix followed by the raw bytes.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint64(uint64(len(b)))
	w.raw(b)
}

// PutString writes a u64 length prefix followed by the raw UTF-8 bytes.
func (w *Writer) PutString(s string) {
	w.PutUint64(uint64(len(s)))
	w.raw([]byte(s))
}

// PutUint32BE writes v as big-endian; used only for the record identifier field.
func (w *Writer) PutUint32BE(v uint32) {
	w.raw([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// SeqHeader writes the u64 count prefix for a sequence<T> or mapping<K,V> of n elements.
func (w *Writer) SeqHeader(n int) { w.PutUint64(uint64(n)) }
