package header

import (
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
)

// CompressionHeader records the compression algorithm and acceptance threshold an object's
// chunk pipeline was configured with: a chunk's compressed form is only kept when
// original/compressed >= the threshold.
type CompressionHeader struct {
	Algorithm format.CompressionType
	Threshold float64
}

func (h *CompressionHeader) Bytes() []byte {
	w := encoding.NewWriter(16)
	w.PutUint8(uint8(h.Algorithm))
	w.PutFloat64(h.Threshold)
	return encoding.WriteRecord(format.IdentCompressionHeader, format.CurrentVersion, w.Bytes())
}

func ParseCompressionHeader(b []byte) (*CompressionHeader, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentCompressionHeader)
	if err != nil {
		return nil, err
	}
	h := &CompressionHeader{}
	alg, err := r.GetUint8()
	if err != nil {
		return nil, err
	}
	h.Algorithm = format.CompressionType(alg)
	if h.Threshold, err = r.GetFloat64(); err != nil {
		return nil, err
	}
	return h, nil
}
