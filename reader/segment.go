package reader

import (
	"encoding/binary"

	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

const tailPointerSize = 8

// readFullRecord reads the identifier/total_length/version prefix at offset to learn the
// record's total length, then reads the whole record in one second pass.
func readFullRecord(src Source, offset uint64) ([]byte, error) {
	head := make([]byte, encoding.RecordHeaderSize)
	if _, err := src.ReadAt(head, int64(offset)); err != nil {
		return nil, err
	}
	total := binary.LittleEndian.Uint64(head[4:12])
	buf := make([]byte, total)
	if _, err := src.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// peekIdentifier reads only the 4-byte big-endian record identifier at offset, letting the
// caller choose between a plaintext and an encrypted Parse function before committing to
// either.
func peekIdentifier(src Source, offset uint64) (format.RecordIdentifier, error) {
	b := make([]byte, 4)
	if _, err := src.ReadAt(b, int64(offset)); err != nil {
		return 0, err
	}
	return format.RecordIdentifier(binary.BigEndian.Uint32(b)), nil
}

// readSegmentFooter locates a segment's SegmentFooter via the trailing 8-byte little-endian
// pointer every segment ends with, and returns the byte offset immediately following it (the
// position where a MainFooter would start, if this is the last segment).
func readSegmentFooter(src Source) (*footer.SegmentFooter, uint64, error) {
	size, err := src.Size()
	if err != nil {
		return nil, 0, err
	}
	if size < tailPointerSize {
		return nil, 0, zfferr.New(zfferr.KindMalformedSegment)
	}
	tail := make([]byte, tailPointerSize)
	if _, err := src.ReadAt(tail, size-tailPointerSize); err != nil {
		return nil, 0, err
	}
	footerStart := binary.LittleEndian.Uint64(tail)

	b, err := readFullRecord(src, footerStart)
	if err != nil {
		return nil, 0, err
	}
	sf, err := footer.ParseSegmentFooter(b)
	if err != nil {
		return nil, 0, err
	}
	return sf, footerStart + uint64(len(b)), nil
}

// readMainFooter parses the MainFooter occupying the gap between a SegmentFooter's end and
// the trailing 8-byte pointer, if any: a non-final segment has no such gap (afterFooter sits
// immediately before the tail pointer), which is how a reader recognizes "this is the last
// segment" without being told the container's segment count up front.
func readMainFooter(src Source, afterFooter uint64) (*footer.MainFooter, error) {
	size, err := src.Size()
	if err != nil {
		return nil, err
	}
	if afterFooter >= uint64(size)-tailPointerSize {
		return nil, nil
	}
	b, err := readFullRecord(src, afterFooter)
	if err != nil {
		return nil, err
	}
	return footer.ParseMainFooter(b)
}
