package encoding

import (
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// RecordHeaderSize is the fixed-size prefix of every framed record: identifier (4) +
// total_length (8) + version (1).
const RecordHeaderSize = 4 + 8 + 1

// WriteRecord wraps body with the identifier/total_length/version framing shared by every
// record type and returns the complete on-disk bytes for the record.
func WriteRecord(ident format.RecordIdentifier, version uint8, body []byte) []byte {
	w := NewWriter(RecordHeaderSize + len(body))
	w.PutUint32BE(uint32(ident))
	w.PutUint64(uint64(RecordHeaderSize + len(body)))
	w.PutUint8(version)
	w.raw(body)
	return w.Bytes()
}

// RecordHeader is the decoded identifier/length/version prefix of a record.
type RecordHeader struct {
	Identifier   format.RecordIdentifier
	TotalLength  uint64
	Version      uint8
}

// ReadRecordHeader decodes and validates the framing prefix against want, returning the
// decoded header and a Reader positioned at the start of the record body.
func ReadRecordHeader(b []byte, want format.RecordIdentifier) (RecordHeader, *Reader, error) {
	r := NewReader(b)
	ident, err := r.GetUint32BE()
	if err != nil {
		return RecordHeader{}, nil, err
	}
	if format.RecordIdentifier(ident) != want {
		return RecordHeader{}, nil, zfferr.Newf(zfferr.KindHeaderDecodeMismatchIdentifier,
			"expected %#08x, got %#08x", uint32(want), ident)
	}
	total, err := r.GetUint64()
	if err != nil {
		return RecordHeader{}, nil, err
	}
	if int(total) > len(b) {
		return RecordHeader{}, nil, zfferr.Newf(zfferr.KindTruncatedRecord,
			"record declares length %d, have %d bytes", total, len(b))
	}
	version, err := r.GetUint8()
	if err != nil {
		return RecordHeader{}, nil, err
	}
	if version != format.CurrentVersion {
		return RecordHeader{}, nil, zfferr.Wrapf(zfferr.KindUnsupportedVersion, nil,
			"record %#08x has version %d, want %d", want, version, format.CurrentVersion)
	}
	return RecordHeader{Identifier: format.RecordIdentifier(ident), TotalLength: total, Version: version}, r, nil
}
