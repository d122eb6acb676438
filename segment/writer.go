package segment

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/internal/log"
	"github.com/zetaforensics/zff/internal/options"
	"github.com/zetaforensics/zff/internal/pool"
	"github.com/zetaforensics/zff/object"
	"github.com/zetaforensics/zff/zfferr"
)

// Sink is the byte-counted output one segment file is written to. Close finalizes that
// segment file; it never affects sibling segments.
type Sink interface {
	io.Writer
	Close() error
}

// SinkFactory opens the Sink for segment number n, named with the given "z"+2-char extension.
// Callers typically join extension onto a shared base path.
type SinkFactory func(n uint64, extension string) (Sink, error)

// mapAccumulator holds the six side-maps currently being filled for the open segment. Each
// is flushed (written as a framed record, offset recorded, and reset) independently once its
// approximate encoded size would exceed the configured chunkmap target.
type mapAccumulator struct {
	offset    footer.ChunkOffsetMap
	size      footer.ChunkSizeMap
	flags     footer.ChunkFlagsMap
	xxhash    footer.ChunkXxHashMap
	samebytes footer.ChunkSameBytesMap
	dedup     footer.ChunkDedupMap
}

// approxEntrySize bytes accounted per entry type used to decide when to flush, not an exact
// wire size: chunkmap_size is a target, not a hard bound.
const (
	approxEntrySize16 = 16 // chunk_number + one uint64 field
	approxEntrySize9  = 9  // chunk_number + one byte field
)

// encodableMap is the shape every ChunkXxxMap type shares, letting flushMap serve all six
// without six near-duplicate functions.
type encodableMap interface {
	Bytes() []byte
	EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error)
	LastChunkNumber() uint64
	Len() int
}

// Writer drives the segment state machine: SegmentHeader, ObjectHeader, interleaved chunking
// and side-map flushes, ObjectFooter, repeating per object, then
// SegmentFooter and (on the final segment) MainFooter, closed with an 8-byte trailing
// pointer back to the SegmentFooter. chunk_number is global across the whole container: it
// is assigned by the object encoders and never reset by rollover.
type Writer struct {
	cfg    Config
	sinks  SinkFactory
	logger *log.Logger

	segmentNumber uint64
	extension     string
	sink          Sink
	offset        uint64

	segFooter  *footer.SegmentFooter
	mainFooter *footer.MainFooter
	acc        mapAccumulator

	segBuf *pool.ByteBuffer

	curEncrypted bool
	curEncAlg    format.EncryptionAlgorithm
	curDEK       []byte

	closed bool
}

// WriterOption is an alias of Option, kept distinct for readability at call sites.
type WriterOption = Option

// NewWriter constructs a Writer and opens the first segment. sinks is invoked once per
// segment as rollover occurs.
func NewWriter(sinks SinkFactory, logger *log.Logger, opts ...Option) (*Writer, error) {
	cfg := &Config{ChunkmapSize: DefaultChunkmapSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.UniqueIdentifier == 0 {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, zfferr.Wrap(zfferr.KindUnknown, err)
		}
		cfg.UniqueIdentifier = int64(binary.LittleEndian.Uint64(b[:]))
	}
	if logger == nil {
		logger = log.Nop()
	}

	w := &Writer{
		cfg:        *cfg,
		sinks:      sinks,
		logger:     logger,
		mainFooter: footer.NewMainFooter(),
	}
	w.mainFooter.DescriptionNotes = cfg.DescriptionNotes
	if err := w.openSegment(1); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openSegment(n uint64) error {
	ext, err := Extension(n)
	if err != nil {
		return err
	}
	sink, err := w.sinks(n, ext)
	if err != nil {
		return err
	}

	w.segmentNumber = n
	w.extension = ext
	w.sink = sink
	w.offset = 0
	w.segFooter = footer.NewSegmentFooter(0)
	w.acc = mapAccumulator{}
	w.mainFooter.NumberOfSegments = n
	w.segBuf = pool.GetSegmentBuffer()

	w.logger.Debug().Uint64("segment", n).Str("extension", ext).Msg("segment opened")

	sh := header.NewSegmentHeader(w.cfg.UniqueIdentifier, n, w.cfg.ChunkmapSize)
	return w.write(sh.Bytes())
}

// write appends b to the segment's pooled accumulator buffer and advances offset, flushing
// the accumulator to the sink once it has grown past its pooled default size. Batching writes
// this way turns the many small per-record/per-chunk sink.Write calls a segment otherwise
// makes into a handful of large ones.
func (w *Writer) write(b []byte) error {
	w.segBuf.MustWrite(b)
	w.offset += uint64(len(b))
	if w.segBuf.Len() >= pool.SegmentBufferDefaultSize {
		return w.flushSegBuf()
	}
	return nil
}

// flushSegBuf writes out whatever the accumulator currently holds and resets it. A no-op when
// the accumulator is empty, which keeps rollover/Close free to call it unconditionally.
func (w *Writer) flushSegBuf() error {
	if w.segBuf.Len() == 0 {
		return nil
	}
	if _, err := w.sink.Write(w.segBuf.Bytes()); err != nil {
		return err
	}
	w.segBuf.Reset()
	return nil
}

// currentOffset reports where the next byte written will land, for callers that must record
// a record's own on-disk position (e.g. Virtual leaves' nonce_value).
func (w *Writer) currentOffset() uint64 { return w.offset }

func (w *Writer) maybeRollover() error {
	if w.cfg.TargetSegmentSize == 0 || w.offset < w.cfg.TargetSegmentSize {
		return nil
	}
	return w.rollover()
}

// rollover flushes every side-map accumulated so far (even partially filled), writes the
// SegmentFooter, closes the current sink, and opens the next segment. chunk_number is
// globally unique and monotonically increasing, so it is never reset across a rollover.
func (w *Writer) rollover() error {
	if err := w.flushAllMaps(); err != nil {
		return err
	}
	if err := w.writeSegmentFooter(); err != nil {
		return err
	}
	if err := w.flushSegBuf(); err != nil {
		return err
	}
	pool.PutSegmentBuffer(w.segBuf)
	w.segBuf = nil
	if err := w.sink.Close(); err != nil {
		return err
	}
	return w.openSegment(w.segmentNumber + 1)
}

func (w *Writer) writeSegmentFooter() error {
	w.segFooter.FooterOffset = w.offset
	w.segFooter.LengthOfSegment = w.offset
	return w.write(w.segFooter.Bytes())
}

// flushMap writes m's current contents as a framed record (encrypted under dek when the
// owning object declared encryption), recording its byte offset under lastChunk in the
// segment's own index table and the segment number under lastChunk in the container-global
// index table, mirroring how ObjectHeaderOffsets/ObjectHeaderSegments split that information.
// Reports whether anything was written.
func flushMap(w *Writer, m encodableMap, segTable, mainIndex map[uint64]uint64) (bool, error) {
	if m.Len() == 0 {
		return false, nil
	}
	var b []byte
	var err error
	if w.curEncrypted {
		b, err = m.EncodeEncrypted(w.curEncAlg, w.curDEK)
	} else {
		b = m.Bytes()
	}
	if err != nil {
		return false, err
	}
	last := m.LastChunkNumber()
	offset := w.offset
	if err := w.write(b); err != nil {
		return false, err
	}
	segTable[last] = offset
	mainIndex[last] = w.segmentNumber
	return true, nil
}

func (w *Writer) flushOffsetMap() error {
	ok, err := flushMap(w, &w.acc.offset, w.segFooter.ChunkOffsetMapTable, w.mainFooter.ChunkOffsetMapIndex)
	if err != nil {
		return err
	}
	if ok {
		w.acc.offset = footer.ChunkOffsetMap{}
	}
	return nil
}

func (w *Writer) flushSizeMap() error {
	ok, err := flushMap(w, &w.acc.size, w.segFooter.ChunkSizeMapTable, w.mainFooter.ChunkSizeMapIndex)
	if err != nil {
		return err
	}
	if ok {
		w.acc.size = footer.ChunkSizeMap{}
	}
	return nil
}

func (w *Writer) flushFlagsMap() error {
	ok, err := flushMap(w, &w.acc.flags, w.segFooter.ChunkFlagsMapTable, w.mainFooter.ChunkFlagsMapIndex)
	if err != nil {
		return err
	}
	if ok {
		w.acc.flags = footer.ChunkFlagsMap{}
	}
	return nil
}

func (w *Writer) flushXxHashMap() error {
	ok, err := flushMap(w, &w.acc.xxhash, w.segFooter.ChunkXxHashMapTable, w.mainFooter.ChunkXxHashMapIndex)
	if err != nil {
		return err
	}
	if ok {
		w.acc.xxhash = footer.ChunkXxHashMap{}
	}
	return nil
}

func (w *Writer) flushSameBytesMap() error {
	ok, err := flushMap(w, &w.acc.samebytes, w.segFooter.ChunkSameBytesMapTable, w.mainFooter.ChunkSameBytesMapIndex)
	if err != nil {
		return err
	}
	if ok {
		w.acc.samebytes = footer.ChunkSameBytesMap{}
	}
	return nil
}

func (w *Writer) flushDedupMap() error {
	ok, err := flushMap(w, &w.acc.dedup, w.segFooter.ChunkDedupMapTable, w.mainFooter.ChunkDedupMapIndex)
	if err != nil {
		return err
	}
	if ok {
		w.acc.dedup = footer.ChunkDedupMap{}
	}
	return nil
}

func (w *Writer) flushAllMaps() error {
	for _, flush := range []func() error{
		w.flushOffsetMap, w.flushSizeMap, w.flushFlagsMap,
		w.flushXxHashMap, w.flushSameBytesMap, w.flushDedupMap,
	} {
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

// appendChunk writes pc's payload to the chunk stream and records its entry in every relevant
// side-map, flushing any map whose accumulated size has reached the configured target.
func (w *Writer) appendChunk(pc *chunk.PreparedChunk) error {
	chunkOffset := w.offset
	if err := w.write(pc.Payload); err != nil {
		return err
	}

	w.acc.offset.ChunkNumbers = append(w.acc.offset.ChunkNumbers, pc.ChunkNumber)
	w.acc.offset.Offsets = append(w.acc.offset.Offsets, chunkOffset)

	w.acc.size.ChunkNumbers = append(w.acc.size.ChunkNumbers, pc.ChunkNumber)
	w.acc.size.Sizes = append(w.acc.size.Sizes, uint64(len(pc.Payload)))

	w.acc.flags.ChunkNumbers = append(w.acc.flags.ChunkNumbers, pc.ChunkNumber)
	w.acc.flags.Flags = append(w.acc.flags.Flags, pc.Flags)

	w.acc.xxhash.ChunkNumbers = append(w.acc.xxhash.ChunkNumbers, pc.ChunkNumber)
	w.acc.xxhash.Hashes = append(w.acc.xxhash.Hashes, pc.IntegrityHash)

	if pc.Flags.Has(format.ChunkFlagSameBytes) {
		w.acc.samebytes.ChunkNumbers = append(w.acc.samebytes.ChunkNumbers, pc.ChunkNumber)
		w.acc.samebytes.Values = append(w.acc.samebytes.Values, pc.Payload[0])
	}
	if pc.Flags.Has(format.ChunkFlagDuplicate) {
		w.acc.dedup.ChunkNumbers = append(w.acc.dedup.ChunkNumbers, pc.ChunkNumber)
		w.acc.dedup.DuplicateOf = append(w.acc.dedup.DuplicateOf, decodeDuplicateRef(pc.Payload))
	}

	if int(approxEntrySize16)*w.acc.offset.Len() >= int(w.cfg.ChunkmapSize) {
		if err := w.flushOffsetMap(); err != nil {
			return err
		}
	}
	if approxEntrySize16*w.acc.size.Len() >= int(w.cfg.ChunkmapSize) {
		if err := w.flushSizeMap(); err != nil {
			return err
		}
	}
	if approxEntrySize9*w.acc.flags.Len() >= int(w.cfg.ChunkmapSize) {
		if err := w.flushFlagsMap(); err != nil {
			return err
		}
	}
	if approxEntrySize16*w.acc.xxhash.Len() >= int(w.cfg.ChunkmapSize) {
		if err := w.flushXxHashMap(); err != nil {
			return err
		}
	}
	if approxEntrySize9*w.acc.samebytes.Len() >= int(w.cfg.ChunkmapSize) {
		if err := w.flushSameBytesMap(); err != nil {
			return err
		}
	}
	if approxEntrySize16*w.acc.dedup.Len() >= int(w.cfg.ChunkmapSize) {
		if err := w.flushDedupMap(); err != nil {
			return err
		}
	}

	pc.Release()

	return w.maybeRollover()
}

func decodeDuplicateRef(b []byte) uint64 {
	var n uint64
	for i := 0; i < 8 && i < len(b); i++ {
		n |= uint64(b[i]) << (8 * i)
	}
	return n
}

func (w *Writer) writeObjectHeader(oh *header.ObjectHeader, dek []byte) error {
	var b []byte
	var err error
	if oh.Encryption != nil {
		b, err = oh.EncodeEncrypted(dek)
		w.curEncrypted = true
		w.curEncAlg = oh.Encryption.Algorithm
		w.curDEK = dek
	} else {
		b = oh.Bytes()
		w.curEncrypted = false
	}
	if err != nil {
		return err
	}
	offset := w.offset
	if err := w.write(b); err != nil {
		return err
	}
	w.segFooter.ObjectHeaderOffsets[oh.ObjectNumber] = offset
	w.mainFooter.ObjectHeaderSegments[oh.ObjectNumber] = w.segmentNumber
	return w.maybeRollover()
}

func (w *Writer) writeObjectFooterOffset(objectNumber uint64, b []byte) error {
	// Final flush of this object's side-maps, while curEncrypted/curDEK still describe it, so
	// no flushed map instance mixes entries (or encryption state) of two objects.
	if err := w.flushAllMaps(); err != nil {
		return err
	}
	offset := w.offset
	if err := w.write(b); err != nil {
		return err
	}
	w.segFooter.ObjectFooterOffsets[objectNumber] = offset
	w.mainFooter.ObjectFooterSegments[objectNumber] = w.segmentNumber
	return nil
}

// WritePhysicalObject drains enc to completion, interleaving chunk appends and side-map
// flushes, and writes the resulting ObjectFooterPhysical.
func (w *Writer) WritePhysicalObject(ctx context.Context, oh *header.ObjectHeader, enc *object.PhysicalEncoder, dek []byte) error {
	if err := w.writeObjectHeader(oh, dek); err != nil {
		return err
	}
	for {
		pc, err := enc.GetNextChunk(ctx)
		if err != nil {
			if errors.Is(err, zfferr.ErrReadEOF) {
				break
			}
			return err
		}
		if err := w.appendChunk(pc); err != nil {
			return err
		}
	}
	of := enc.Finalize()
	var b []byte
	if oh.Encryption != nil {
		b, err := of.EncodeEncrypted(oh.Encryption.Algorithm, dek)
		if err != nil {
			return err
		}
		return w.writeObjectFooterOffset(of.ObjectNumber, b)
	}
	b = of.Bytes()
	return w.writeObjectFooterOffset(of.ObjectNumber, b)
}

// WriteLogicalObject drains enc's file queue, writing each FileHeader/chunk/FileFooter as it
// is emitted, and writes the resulting ObjectFooterLogical.
func (w *Writer) WriteLogicalObject(ctx context.Context, oh *header.ObjectHeader, enc *object.LogicalEncoder, dek []byte) error {
	if err := w.writeObjectHeader(oh, dek); err != nil {
		return err
	}
	segmentOffset := func() (uint64, uint64) { return w.segmentNumber, w.offset }
	for {
		rec, err := enc.Next(ctx, segmentOffset)
		if err != nil {
			if errors.Is(err, zfferr.ErrReadEOF) {
				break
			}
			return err
		}
		switch {
		case rec.FileHeader != nil:
			var b []byte
			if oh.Encryption != nil {
				b, err = rec.FileHeader.EncodeEncrypted(oh.Encryption.Algorithm, dek)
				if err != nil {
					return err
				}
			} else {
				b = rec.FileHeader.Bytes()
			}
			if err := w.write(b); err != nil {
				return err
			}
			if err := w.maybeRollover(); err != nil {
				return err
			}
		case rec.Chunk != nil:
			if err := w.appendChunk(rec.Chunk); err != nil {
				return err
			}
		case rec.FileFooter != nil:
			var b []byte
			if oh.Encryption != nil {
				b, err = rec.FileFooter.EncodeEncrypted(oh.Encryption.Algorithm, dek)
				if err != nil {
					return err
				}
			} else {
				b = rec.FileFooter.Bytes()
			}
			if err := w.write(b); err != nil {
				return err
			}
			if err := w.maybeRollover(); err != nil {
				return err
			}
		}
	}

	of := enc.Finalize()
	var b []byte
	var err error
	if oh.Encryption != nil {
		b, err = of.EncodeEncrypted(oh.Encryption.Algorithm, dek)
		if err != nil {
			return err
		}
	} else {
		b = of.Bytes()
	}
	return w.writeObjectFooterOffset(of.ObjectNumber, b)
}

// WriteVirtualObject serializes enc's offset mapping tree (leaves first, then each
// VirtualLayer, root last), rewriting every VirtualLayerEntry.TargetOffset from the
// placeholder index object.VirtualEncoder.Build assigned to the real on-disk byte offset the
// referenced record ends up at, then writes the resulting ObjectFooterVirtual.
func (w *Writer) WriteVirtualObject(oh *header.ObjectHeader, enc *object.VirtualEncoder, dek []byte) error {
	if err := w.writeObjectHeader(oh, dek); err != nil {
		return err
	}

	layout := enc.Build()

	leafOffsets := make([]uint64, len(layout.Leaves))
	for i, leaf := range layout.Leaves {
		offset := w.offset
		var b []byte
		var err error
		if oh.Encryption != nil {
			b, err = leaf.EncodeEncrypted(oh.Encryption.Algorithm, dek, offset)
		} else {
			b = leaf.Bytes()
		}
		if err != nil {
			return err
		}
		if err := w.write(b); err != nil {
			return err
		}
		leafOffsets[i] = offset
	}

	layerOffsets := make([]uint64, len(layout.Layers))
	for i, l := range layout.Layers {
		for j, e := range l.Entries {
			if e.IsLeaf {
				l.Entries[j].TargetOffset = leafOffsets[e.TargetOffset]
			} else {
				l.Entries[j].TargetOffset = layerOffsets[e.TargetOffset]
			}
		}
		offset := w.offset
		if err := w.write(l.Bytes()); err != nil {
			return err
		}
		layerOffsets[i] = offset
	}

	if err := w.maybeRollover(); err != nil {
		return err
	}

	rootOffset := layerOffsets[layout.RootLayerIndex]
	of := enc.Finalize(rootOffset)
	var b []byte
	var err error
	if oh.Encryption != nil {
		b, err = of.EncodeEncrypted(oh.Encryption.Algorithm, dek)
		if err != nil {
			return err
		}
	} else {
		b = of.Bytes()
	}
	return w.writeObjectFooterOffset(of.ObjectNumber, b)
}

// Close flushes whatever side-maps remain, writes the final SegmentFooter, writes the
// MainFooter (this is the last segment), and appends the trailing 8-byte little-endian
// pointer back to the SegmentFooter's start offset that lets a reader locate it without
// scanning the whole file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.flushAllMaps(); err != nil {
		return err
	}

	footerStart := w.offset
	if err := w.writeSegmentFooter(); err != nil {
		return err
	}

	w.mainFooter.FooterOffset = w.offset
	if err := w.write(w.mainFooter.Bytes()); err != nil {
		return err
	}

	var tail [8]byte
	binary.LittleEndian.PutUint64(tail[:], footerStart)
	if err := w.write(tail[:]); err != nil {
		return err
	}

	if err := w.flushSegBuf(); err != nil {
		return err
	}
	pool.PutSegmentBuffer(w.segBuf)
	w.segBuf = nil

	return w.sink.Close()
}
