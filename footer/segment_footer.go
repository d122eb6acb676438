// Package footer implements the closing-record half of the header/footer codec:
// SegmentFooter, the three ObjectFooter variants, FileFooter, MainFooter,
// VirtualLayer/VirtualMappingInformation, and the six ChunkMap index records.
package footer

import (
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
)

// SegmentFooter closes a segment: it indexes where every object header/footer written in
// this segment lives, and where each flushed instance of the
// six side-maps lives, keyed by the highest chunk_number each instance covers.
type SegmentFooter struct {
	FirstChunkNumber   uint64
	ObjectHeaderOffsets map[uint64]uint64
	ObjectFooterOffsets map[uint64]uint64

	ChunkOffsetMapTable   map[uint64]uint64
	ChunkSizeMapTable     map[uint64]uint64
	ChunkFlagsMapTable    map[uint64]uint64
	ChunkXxHashMapTable   map[uint64]uint64
	ChunkSameBytesMapTable map[uint64]uint64
	ChunkDedupMapTable    map[uint64]uint64

	FooterOffset     uint64
	LengthOfSegment uint64
}

// NewSegmentFooter returns a SegmentFooter with all index tables initialized empty.
func NewSegmentFooter(firstChunkNumber uint64) *SegmentFooter {
	return &SegmentFooter{
		FirstChunkNumber:       firstChunkNumber,
		ObjectHeaderOffsets:    map[uint64]uint64{},
		ObjectFooterOffsets:    map[uint64]uint64{},
		ChunkOffsetMapTable:    map[uint64]uint64{},
		ChunkSizeMapTable:      map[uint64]uint64{},
		ChunkFlagsMapTable:     map[uint64]uint64{},
		ChunkXxHashMapTable:    map[uint64]uint64{},
		ChunkSameBytesMapTable: map[uint64]uint64{},
		ChunkDedupMapTable:     map[uint64]uint64{},
	}
}

func (f *SegmentFooter) Bytes() []byte {
	w := encoding.NewWriter(512)
	w.PutUint64(f.FirstChunkNumber)
	w.PutUint64Map(f.ObjectHeaderOffsets)
	w.PutUint64Map(f.ObjectFooterOffsets)
	w.PutUint64Map(f.ChunkOffsetMapTable)
	w.PutUint64Map(f.ChunkSizeMapTable)
	w.PutUint64Map(f.ChunkFlagsMapTable)
	w.PutUint64Map(f.ChunkXxHashMapTable)
	w.PutUint64Map(f.ChunkSameBytesMapTable)
	w.PutUint64Map(f.ChunkDedupMapTable)
	w.PutUint64(f.FooterOffset)
	w.PutUint64(f.LengthOfSegment)
	return encoding.WriteRecord(format.IdentSegmentFooter, format.CurrentVersion, w.Bytes())
}

func ParseSegmentFooter(b []byte) (*SegmentFooter, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentSegmentFooter)
	if err != nil {
		return nil, err
	}
	f := &SegmentFooter{}
	if f.FirstChunkNumber, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if f.ObjectHeaderOffsets, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ObjectFooterOffsets, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkOffsetMapTable, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkSizeMapTable, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkFlagsMapTable, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkXxHashMapTable, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkSameBytesMapTable, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkDedupMapTable, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.FooterOffset, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if f.LengthOfSegment, err = r.GetUint64(); err != nil {
		return nil, err
	}
	return f, nil
}
