package footer

import (
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
)

// MainFooter is the container-global index, present in exactly one segment: the last one.
// It locates every object by the segment its header/footer lives in, and locates every
// flushed side-map instance by the highest chunk_number it covers.
type MainFooter struct {
	ObjectHeaderSegments map[uint64]uint64
	ObjectFooterSegments map[uint64]uint64

	ChunkOffsetMapIndex    map[uint64]uint64
	ChunkSizeMapIndex      map[uint64]uint64
	ChunkFlagsMapIndex     map[uint64]uint64
	ChunkXxHashMapIndex    map[uint64]uint64
	ChunkSameBytesMapIndex map[uint64]uint64
	ChunkDedupMapIndex     map[uint64]uint64

	DescriptionNotes string
	FooterOffset     uint64
	NumberOfSegments uint64
}

// NewMainFooter returns a MainFooter with all index tables initialized empty.
func NewMainFooter() *MainFooter {
	return &MainFooter{
		ObjectHeaderSegments:   map[uint64]uint64{},
		ObjectFooterSegments:   map[uint64]uint64{},
		ChunkOffsetMapIndex:    map[uint64]uint64{},
		ChunkSizeMapIndex:      map[uint64]uint64{},
		ChunkFlagsMapIndex:     map[uint64]uint64{},
		ChunkXxHashMapIndex:    map[uint64]uint64{},
		ChunkSameBytesMapIndex: map[uint64]uint64{},
		ChunkDedupMapIndex:     map[uint64]uint64{},
	}
}

func (f *MainFooter) Bytes() []byte {
	w := encoding.NewWriter(512)
	w.PutUint64Map(f.ObjectHeaderSegments)
	w.PutUint64Map(f.ObjectFooterSegments)
	w.PutUint64Map(f.ChunkOffsetMapIndex)
	w.PutUint64Map(f.ChunkSizeMapIndex)
	w.PutUint64Map(f.ChunkFlagsMapIndex)
	w.PutUint64Map(f.ChunkXxHashMapIndex)
	w.PutUint64Map(f.ChunkSameBytesMapIndex)
	w.PutUint64Map(f.ChunkDedupMapIndex)
	w.PutString(f.DescriptionNotes)
	w.PutUint64(f.FooterOffset)
	w.PutUint64(f.NumberOfSegments)
	return encoding.WriteRecord(format.IdentMainFooter, format.CurrentVersion, w.Bytes())
}

func ParseMainFooter(b []byte) (*MainFooter, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentMainFooter)
	if err != nil {
		return nil, err
	}
	f := &MainFooter{}
	if f.ObjectHeaderSegments, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ObjectFooterSegments, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkOffsetMapIndex, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkSizeMapIndex, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkFlagsMapIndex, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkXxHashMapIndex, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkSameBytesMapIndex, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.ChunkDedupMapIndex, err = r.GetUint64Map(); err != nil {
		return nil, err
	}
	if f.DescriptionNotes, err = r.GetString(); err != nil {
		return nil, err
	}
	if f.FooterOffset, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if f.NumberOfSegments, err = r.GetUint64(); err != nil {
		return nil, err
	}
	return f, nil
}
