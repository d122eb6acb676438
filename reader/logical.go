package reader

import (
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/zfferr"
)

// LogicalReader walks a Logical object's file tree. Every file number the object wrote is
// independently addressable; FileHeader.ParentFileNumber
// lets a caller reconstruct directory structure without a separate index.
type LogicalReader struct {
	r      *Reader
	obj    *ObjectReader
	Footer *footer.ObjectFooterLogical
}

// Logical opens objectNumber's ObjectFooterLogical and returns a LogicalReader, failing with
// zfferr.KindMismatchObjectType if the object is not a Logical object.
func (r *Reader) Logical(objectNumber uint64, password []byte) (*LogicalReader, error) {
	obj, err := r.OpenObject(objectNumber, password)
	if err != nil {
		return nil, err
	}
	if obj.Header.ObjectType != format.ObjectTypeLogical {
		return nil, zfferr.Newf(zfferr.KindMismatchObjectType, "object %d is not Logical", objectNumber)
	}

	segment, offset, err := r.objectFooterLocation(objectNumber)
	if err != nil {
		return nil, err
	}
	src, err := r.source(segment)
	if err != nil {
		return nil, err
	}
	b, err := readFullRecord(src, offset)
	if err != nil {
		return nil, err
	}

	ident, err := peekIdentifier(src, offset)
	if err != nil {
		return nil, err
	}
	var foot *footer.ObjectFooterLogical
	if ident == format.IdentObjectFooterLogical {
		foot, err = footer.ParseObjectFooterLogical(b)
	} else {
		foot, err = footer.ParseEncryptedObjectFooterLogical(b, obj.Header.Encryption.Algorithm, obj.dek)
	}
	if err != nil {
		return nil, err
	}

	return &LogicalReader{r: r, obj: obj, Footer: foot}, nil
}

// RootFileNumbers returns the file numbers with no parent.
func (l *LogicalReader) RootFileNumbers() []uint64 { return l.Footer.RootFileNumbers }

// FileNumbers returns every file number this Logical object wrote a header for.
func (l *LogicalReader) FileNumbers() []uint64 {
	out := make([]uint64, 0, len(l.Footer.FileHeaderLocations))
	for n := range l.Footer.FileHeaderLocations {
		out = append(out, n)
	}
	return out
}

func (l *LogicalReader) recordAt(loc footer.FileLocation) ([]byte, format.RecordIdentifier, Source, error) {
	src, err := l.r.source(loc.Segment)
	if err != nil {
		return nil, 0, nil, err
	}
	b, err := readFullRecord(src, loc.Offset)
	if err != nil {
		return nil, 0, nil, err
	}
	ident, err := peekIdentifier(src, loc.Offset)
	if err != nil {
		return nil, 0, nil, err
	}
	return b, ident, src, nil
}

// FileHeader decodes fileNumber's FileHeader record.
func (l *LogicalReader) FileHeader(fileNumber uint64) (*header.FileHeader, error) {
	loc, ok := l.Footer.FileHeaderLocations[fileNumber]
	if !ok {
		return nil, zfferr.Newf(zfferr.KindMissingFileNumber, "file %d has no header", fileNumber)
	}
	b, ident, _, err := l.recordAt(loc)
	if err != nil {
		return nil, err
	}
	if ident == format.IdentFileHeader {
		return header.ParseFileHeader(b)
	}
	if l.obj.Header.Encryption == nil {
		return nil, zfferr.New(zfferr.KindMissingEncryptionKey)
	}
	return header.ParseEncryptedFileHeader(b, l.obj.Header.Encryption.Algorithm, l.obj.dek)
}

// FileFooter decodes fileNumber's FileFooter record.
func (l *LogicalReader) FileFooter(fileNumber uint64) (*footer.FileFooter, error) {
	loc, ok := l.Footer.FileFooterLocations[fileNumber]
	if !ok {
		return nil, zfferr.Newf(zfferr.KindMissingFileNumber, "file %d has no footer", fileNumber)
	}
	b, ident, _, err := l.recordAt(loc)
	if err != nil {
		return nil, err
	}
	if ident == format.IdentFileFooter {
		return footer.ParseFileFooter(b)
	}
	if l.obj.Header.Encryption == nil {
		return nil, zfferr.New(zfferr.KindMissingEncryptionKey)
	}
	return footer.ParseEncryptedFileFooter(b, l.obj.Header.Encryption.Algorithm, l.obj.dek)
}

// FileChunk returns the decoded plaintext of the index-th chunk (0-based) of fileNumber's
// content, as named by its FileFooter's chunk range.
func (l *LogicalReader) FileChunk(fileNumber uint64, index uint64) ([]byte, error) {
	foot, err := l.FileFooter(fileNumber)
	if err != nil {
		return nil, err
	}
	if index >= foot.NumberOfChunks {
		return nil, zfferr.New(zfferr.KindNoChunksLeft)
	}
	return l.obj.chunks.GetChunk(foot.FirstChunkNumber + index)
}

// ReadFileAt implements io.ReaderAt over fileNumber's decoded plaintext content.
func (l *LogicalReader) ReadFileAt(fileNumber uint64, b []byte, off int64) (int, error) {
	foot, err := l.FileFooter(fileNumber)
	if err != nil {
		return 0, err
	}
	if off < 0 || uint64(off) >= foot.LengthOfData {
		return 0, zfferr.New(zfferr.KindNoChunksLeft)
	}
	chunkSize := l.obj.Header.ChunkSize
	n := 0
	for n < len(b) {
		pos := uint64(off) + uint64(n)
		if pos >= foot.LengthOfData {
			break
		}
		index := pos / chunkSize
		within := pos % chunkSize
		chunk, err := l.FileChunk(fileNumber, index)
		if err != nil {
			return n, err
		}
		if within >= uint64(len(chunk)) {
			break
		}
		n += copy(b[n:], chunk[within:])
	}
	if n < len(b) {
		return n, zfferr.New(zfferr.KindReadEOF)
	}
	return n, nil
}
