package reader

import (
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// PhysicalReader gives random and sequential access to a Physical object's chunk stream (spec
// §4.4 "Physical encoder", §4.6 reader). It is a thin view over ObjectReader: a Physical
// object's footer names the contiguous chunk range the object occupies, nothing more.
type PhysicalReader struct {
	obj    *ObjectReader
	Footer *footer.ObjectFooterPhysical
}

// Physical opens objectNumber's ObjectFooterPhysical and returns a PhysicalReader, failing
// with zfferr.KindMismatchObjectType if the object is not a Physical object.
func (r *Reader) Physical(objectNumber uint64, password []byte) (*PhysicalReader, error) {
	obj, err := r.OpenObject(objectNumber, password)
	if err != nil {
		return nil, err
	}
	if obj.Header.ObjectType != format.ObjectTypePhysical {
		return nil, zfferr.Newf(zfferr.KindMismatchObjectType, "object %d is not Physical", objectNumber)
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
	var foot *footer.ObjectFooterPhysical
	if ident == format.IdentObjectFooterPhysical {
		foot, err = footer.ParseObjectFooterPhysical(b)
	} else {
		foot, err = footer.ParseEncryptedObjectFooterPhysical(b, obj.Header.Encryption.Algorithm, obj.dek)
	}
	if err != nil {
		return nil, err
	}

	return &PhysicalReader{obj: obj, Footer: foot}, nil
}

// NumberOfChunks reports how many chunks the Physical object's data spans.
func (p *PhysicalReader) NumberOfChunks() uint64 { return p.Footer.NumberOfChunks }

// Chunk returns the decoded plaintext of the index-th chunk of the object's data (0-based,
// < NumberOfChunks).
func (p *PhysicalReader) Chunk(index uint64) ([]byte, error) {
	if index >= p.Footer.NumberOfChunks {
		return nil, zfferr.New(zfferr.KindNoChunksLeft)
	}
	return p.obj.chunks.GetChunk(p.Footer.FirstChunkNumber + index)
}

// ReadAt implements io.ReaderAt over the object's decoded plaintext, spanning as many chunks
// as needed to satisfy len(b). Short final chunks (the legal "acquisition ended mid-chunk"
// case) are honored like any other chunk size.
func (p *PhysicalReader) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 || uint64(off) >= p.Footer.LengthOfData {
		return 0, zfferr.New(zfferr.KindNoChunksLeft)
	}
	chunkSize := p.obj.Header.ChunkSize
	n := 0
	for n < len(b) {
		pos := uint64(off) + uint64(n)
		if pos >= p.Footer.LengthOfData {
			break
		}
		index := pos / chunkSize
		within := pos % chunkSize
		chunk, err := p.Chunk(index)
		if err != nil {
			return n, err
		}
		if within >= uint64(len(chunk)) {
			break
		}
		copied := copy(b[n:], chunk[within:])
		n += copied
	}
	if n < len(b) {
		return n, zfferr.New(zfferr.KindReadEOF)
	}
	return n, nil
}
