package object

import (
	"context"
	"hash"
	"io"
	"time"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/zfferr"
)

// FileEntry is one caller-supplied member of a Logical object's file queue. Content is the
// byte stream chunked as the file's body: nil for
// Directory and Hardlink entries (they carry no content chunks), the link target for
// Symlink, the special-file type byte plus device identifiers for SpecialFile, and the
// regular file body for File.
type FileEntry struct {
	FileNumber       uint64
	FileType         format.FileType
	Filename         string
	ParentFileNumber uint64
	MetadataExt      map[string]encoding.ExtValue
	Content          io.Reader
}

// EmittedRecord is one framed record the LogicalEncoder produced: a FileHeader, a chunk, or
// a FileFooter, in the order the segment writer must append them to the chunk stream.
type EmittedRecord struct {
	FileHeader *header.FileHeader
	Chunk      *chunk.PreparedChunk
	FileFooter *footer.FileFooter
}

// LogicalEncoder walks an ordered file queue, emitting each file's FileHeader, its content
// chunks (if any), and its FileFooter in turn. chunk_number keeps incrementing across files;
// it never resets.
type LogicalEncoder struct {
	objectNumber uint64
	files        []FileEntry
	fileIdx      int

	chunkSize  uint64
	pipeline   *chunk.Pipeline
	hashAlgs   []format.HashAlgorithm
	newHasher  func(format.HashAlgorithm) (hash.Hash, error)
	chunkNumber uint64

	state  fileState
	cursor *fileCursor

	fileHeaderLocations map[uint64]footer.FileLocation
	fileFooterLocations map[uint64]footer.FileLocation
}

type fileState int

const (
	stateChunking fileState = iota
	stateDone
)

// NewLogicalEncoder constructs a LogicalEncoder over files, chunking at chunkSize and
// starting chunk numbering at initialChunkNumber.
func NewLogicalEncoder(objectNumber uint64, files []FileEntry, chunkSize uint64, initialChunkNumber uint64, pipeline *chunk.Pipeline, hashAlgs []format.HashAlgorithm, newHasher func(format.HashAlgorithm) (hash.Hash, error)) *LogicalEncoder {
	return &LogicalEncoder{
		objectNumber:        objectNumber,
		files:               files,
		chunkSize:           chunkSize,
		pipeline:            pipeline,
		hashAlgs:            hashAlgs,
		newHasher:           newHasher,
		chunkNumber:         initialChunkNumber,
		fileHeaderLocations: map[uint64]footer.FileLocation{},
		fileFooterLocations: map[uint64]footer.FileLocation{},
	}
}

type fileCursor struct {
	entry            FileEntry
	hashes           *hashSet
	firstChunkNumber uint64
	numberOfChunks   uint64
	lengthOfData     uint64
	acquisitionStart int64
	acquisitionEnd   int64
}

// Next produces the next EmittedRecord: a FileHeader when starting a new file, zero or more
// chunks while that file's content is consumed, then its FileFooter, repeating for every
// entry in the queue. It returns zfferr.ErrReadEOF once every file has been emitted.
func (e *LogicalEncoder) Next(ctx context.Context, segmentOffset func() (segment, offset uint64)) (*EmittedRecord, error) {
	if e.cursor == nil {
		if e.fileIdx >= len(e.files) {
			return nil, zfferr.ErrReadEOF
		}
		entry := e.files[e.fileIdx]
		hs, err := newHashSet(e.hashAlgs, e.newHasher)
		if err != nil {
			return nil, err
		}
		e.cursor = &fileCursor{entry: entry, hashes: hs, firstChunkNumber: e.chunkNumber, acquisitionStart: time.Now().UnixNano()}
		e.state = stateChunking

		fh := &header.FileHeader{
			FileNumber:       entry.FileNumber,
			FileType:         entry.FileType,
			Filename:         entry.Filename,
			ParentFileNumber: entry.ParentFileNumber,
			MetadataExt:      entry.MetadataExt,
		}
		if segmentOffset != nil {
			seg, off := segmentOffset()
			e.fileHeaderLocations[entry.FileNumber] = footer.FileLocation{Segment: seg, Offset: off}
		}
		return &EmittedRecord{FileHeader: fh}, nil
	}

	if e.state == stateChunking && e.cursor.entry.Content != nil {
		buf := make([]byte, e.chunkSize)
		n, err := io.ReadFull(e.cursor.entry.Content, buf)
		switch {
		case err == io.EOF:
			// content exhausted: fall through to footer emission below
		case err == io.ErrUnexpectedEOF:
			c, perr := e.emitChunk(ctx, buf[:n])
			if perr != nil {
				return nil, perr
			}
			return &EmittedRecord{Chunk: c}, nil
		case err != nil:
			return nil, zfferr.Wrap(zfferr.KindInterruptedInputStream, err)
		default:
			c, perr := e.emitChunk(ctx, buf)
			if perr != nil {
				return nil, perr
			}
			return &EmittedRecord{Chunk: c}, nil
		}
	}

	// Content exhausted (or absent): emit the FileFooter and advance to the next file.
	e.cursor.acquisitionEnd = time.Now().UnixNano()
	ff := &footer.FileFooter{
		FileNumber:       e.cursor.entry.FileNumber,
		AcquisitionStart: e.cursor.acquisitionStart,
		AcquisitionEnd:   e.cursor.acquisitionEnd,
		FirstChunkNumber: e.cursor.firstChunkNumber,
		NumberOfChunks:   e.cursor.numberOfChunks,
		LengthOfData:     e.cursor.lengthOfData,
		Hash:             e.cursor.hashes.finalize(),
	}
	if segmentOffset != nil {
		seg, off := segmentOffset()
		e.fileFooterLocations[e.cursor.entry.FileNumber] = footer.FileLocation{Segment: seg, Offset: off}
	}
	e.cursor = nil
	e.fileIdx++
	return &EmittedRecord{FileFooter: ff}, nil
}

func (e *LogicalEncoder) emitChunk(ctx context.Context, buf []byte) (*chunk.PreparedChunk, error) {
	e.cursor.hashes.write(buf)
	e.cursor.lengthOfData += uint64(len(buf))
	pc, err := e.pipeline.Process(ctx, e.chunkNumber, buf)
	if err != nil {
		return nil, err
	}
	e.chunkNumber++
	e.cursor.numberOfChunks++
	return pc, nil
}

// Finalize returns the ObjectFooterLogical once every file in the queue has been emitted.
// A file with ParentFileNumber 0 is a root of the tree.
func (e *LogicalEncoder) Finalize() *footer.ObjectFooterLogical {
	var roots []uint64
	for _, f := range e.files {
		if f.ParentFileNumber == 0 {
			roots = append(roots, f.FileNumber)
		}
	}
	return &footer.ObjectFooterLogical{
		ObjectNumber:        e.objectNumber,
		RootFileNumbers:     roots,
		FileHeaderLocations: e.fileHeaderLocations,
		FileFooterLocations: e.fileFooterLocations,
	}
}

// NextChunkNumber reports the chunk counter the encoder will assign next.
func (e *LogicalEncoder) NextChunkNumber() uint64 { return e.chunkNumber }
