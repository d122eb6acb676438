// Package header implements the header record types: SegmentHeader, ObjectHeader (plain
// and encrypted), EncryptionHeader, PBEHeader, CompressionHeader, HashHeader, and FileHeader
// (plain and encrypted). Each concrete type follows the same pattern: a struct with exported
// fields, a Bytes() encoder, and a Parse decoder, built on top of the shared
// encoding.Writer/Reader framing.
package header

import (
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
)

// SegmentHeader opens every segment file, identifying the container instance and the
// segment's position within it.
type SegmentHeader struct {
	UniqueIdentifier    int64
	SegmentNumber       uint64
	ChunkmapTargetSize  uint64
}

// NewSegmentHeader constructs a SegmentHeader for segment segmentNumber of a container
// identified by uniqueIdentifier, targeting chunkmapTargetSize bytes per flushed side-map.
func NewSegmentHeader(uniqueIdentifier int64, segmentNumber, chunkmapTargetSize uint64) *SegmentHeader {
	return &SegmentHeader{
		UniqueIdentifier:   uniqueIdentifier,
		SegmentNumber:      segmentNumber,
		ChunkmapTargetSize: chunkmapTargetSize,
	}
}

// Bytes encodes the full framed record.
func (h *SegmentHeader) Bytes() []byte {
	w := encoding.NewWriter(32)
	w.PutInt64(h.UniqueIdentifier)
	w.PutUint64(h.SegmentNumber)
	w.PutUint64(h.ChunkmapTargetSize)
	return encoding.WriteRecord(format.IdentSegmentHeader, format.CurrentVersion, w.Bytes())
}

// ParseSegmentHeader decodes a framed SegmentHeader record from b.
func ParseSegmentHeader(b []byte) (*SegmentHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentSegmentHeader)
	if err != nil {
		return nil, err
	}
	h := &SegmentHeader{}
	if h.UniqueIdentifier, err = r.GetInt64(); err != nil {
		return nil, err
	}
	if h.SegmentNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if h.ChunkmapTargetSize, err = r.GetUint64(); err != nil {
		return nil, err
	}
	return h, nil
}
