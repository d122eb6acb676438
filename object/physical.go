// Package object implements the three object encoders:
// Physical (one contiguous byte stream), Logical (an ordered file tree), and Virtual (a
// composition of passive objects' chunk ranges).
package object

import (
	"context"
	"hash"
	"io"
	"time"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/zfferr"
)

// hashSet runs one buffer through every configured plaintext hasher and rolls the result up
// into a *header.HashHeader on Finalize.
type hashSet struct {
	algs    []format.HashAlgorithm
	hashers []hash.Hash
}

func newHashSet(algs []format.HashAlgorithm, newHasher func(format.HashAlgorithm) (hash.Hash, error)) (*hashSet, error) {
	hs := &hashSet{algs: algs, hashers: make([]hash.Hash, len(algs))}
	for i, alg := range algs {
		h, err := newHasher(alg)
		if err != nil {
			return nil, err
		}
		hs.hashers[i] = h
	}
	return hs, nil
}

func (hs *hashSet) write(p []byte) {
	for _, h := range hs.hashers {
		h.Write(p) //nolint:errcheck // hash.Hash.Write never errors
	}
}

func (hs *hashSet) finalize() *header.HashHeader {
	values := make([]header.HashValue, len(hs.algs))
	for i, alg := range hs.algs {
		values[i] = header.HashValue{Algorithm: alg, Digest: hs.hashers[i].Sum(nil)}
	}
	return &header.HashHeader{Values: values}
}

// PhysicalEncoder streams one contiguous input through the chunk pipeline. It is stateful
// and not safe for concurrent use.
type PhysicalEncoder struct {
	objectNumber uint64
	r            io.Reader
	chunkSize    uint64
	pipeline     *chunk.Pipeline
	hashes       *hashSet

	chunkNumber      uint64
	firstChunkNumber uint64
	acquisitionStart int64
	acquisitionEnd   int64
	lengthOfData     uint64
	started          bool
	finished         bool
}

// NewPhysicalEncoder constructs a PhysicalEncoder reading from r, chunking at chunkSize,
// starting chunk numbering at initialChunkNumber (the writer assigns this so chunk_number is
// never reset across objects).
func NewPhysicalEncoder(objectNumber uint64, r io.Reader, chunkSize uint64, initialChunkNumber uint64, pipeline *chunk.Pipeline, hashAlgs []format.HashAlgorithm, newHasher func(format.HashAlgorithm) (hash.Hash, error)) (*PhysicalEncoder, error) {
	hs, err := newHashSet(hashAlgs, newHasher)
	if err != nil {
		return nil, err
	}
	return &PhysicalEncoder{
		objectNumber:     objectNumber,
		r:                r,
		chunkSize:        chunkSize,
		pipeline:         pipeline,
		hashes:           hs,
		chunkNumber:      initialChunkNumber,
		firstChunkNumber: initialChunkNumber,
	}, nil
}

// GetNextChunk pulls up to chunkSize bytes from the input, runs the pipeline over them, and
// returns the PreparedChunk. A short final read is a legal final chunk. Once the input is
// exhausted it returns zfferr.ErrReadEOF and the encoder is finished: Finalize may then be
// called.
func (e *PhysicalEncoder) GetNextChunk(ctx context.Context) (*chunk.PreparedChunk, error) {
	if e.finished {
		return nil, zfferr.ErrReadEOF
	}
	if !e.started {
		e.acquisitionStart = time.Now().UnixNano()
		e.started = true
	}

	buf := make([]byte, e.chunkSize)
	n, err := io.ReadFull(e.r, buf)
	switch {
	case err == io.EOF:
		e.finish()
		return nil, zfferr.ErrReadEOF
	case err == io.ErrUnexpectedEOF:
		// short final read: legal as long as at least one byte was read.
		buf = buf[:n]
	case err != nil:
		return nil, zfferr.Wrap(zfferr.KindInterruptedInputStream, err)
	}

	e.hashes.write(buf)
	e.lengthOfData += uint64(len(buf))

	pc, err := e.pipeline.Process(ctx, e.chunkNumber, buf)
	if err != nil {
		return nil, err
	}
	e.chunkNumber++

	if len(buf) < int(e.chunkSize) {
		e.finish()
	}
	return pc, nil
}

func (e *PhysicalEncoder) finish() {
	if e.finished {
		return
	}
	e.acquisitionEnd = time.Now().UnixNano()
	e.finished = true
}

// Finalize returns the ObjectFooterPhysical once the input has been fully consumed.
func (e *PhysicalEncoder) Finalize() *footer.ObjectFooterPhysical {
	return &footer.ObjectFooterPhysical{
		ObjectNumber:     e.objectNumber,
		AcquisitionStart: e.acquisitionStart,
		AcquisitionEnd:   e.acquisitionEnd,
		FirstChunkNumber: e.firstChunkNumber,
		NumberOfChunks:   e.chunkNumber - e.firstChunkNumber,
		LengthOfData:     e.lengthOfData,
		Hash:             e.hashes.finalize(),
	}
}

// NextChunkNumber reports the chunk counter the encoder will assign next, so the writer can
// hand a continuing counter to the next encoder in sequence.
func (e *PhysicalEncoder) NextChunkNumber() uint64 { return e.chunkNumber }
