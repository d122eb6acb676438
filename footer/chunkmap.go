package footer

import (
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// lastChunkNumber returns the highest chunk_number in an ascending-order side-map slice,
// which is both the key the SegmentFooter/MainFooter index tables use to locate a flushed
// instance and the nonce_value for that instance's AEAD encryption.
func lastChunkNumber(chunkNumbers []uint64) uint64 {
	if len(chunkNumbers) == 0 {
		return 0
	}
	return chunkNumbers[len(chunkNumbers)-1]
}

// encodeEncryptedMap AEAD-encrypts a side-map's plaintext body under dek, keyed by the
// class-specific nonce tag and nonce_value = lastChunk.
func encodeEncryptedMap(ident format.RecordIdentifier, tag format.NonceTag, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64, body []byte) ([]byte, error) {
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.SealWithTag(lastChunk, tag, body)
	return encoding.WriteRecord(ident, format.CurrentVersion, ciphertext), nil
}

// decodeEncryptedMap undoes encodeEncryptedMap given the lastChunk the caller already knows
// from the index table that located this map instance, and returns a Reader over the
// decrypted body.
func decodeEncryptedMap(b []byte, ident format.RecordIdentifier, tag format.NonceTag, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64) (*encoding.Reader, error) {
	_, r, err := encoding.ReadRecordHeader(b, ident)
	if err != nil {
		return nil, err
	}
	ciphertext := r.Remainder()
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.OpenWithTag(lastChunk, tag, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	return encoding.NewReader(plaintext), nil
}

// Side-maps are written in ascending chunk_number order and flushed as a framed record once
// the writer's configured target byte size would be exceeded. Each map below stores parallel
// slices rather than a map so encode/decode preserves that ascending
// order exactly as written.

// ChunkOffsetMap records the byte offset of every chunk's payload within its segment.
type ChunkOffsetMap struct {
	ChunkNumbers []uint64
	Offsets      []uint64
}

func (m *ChunkOffsetMap) bodyBytes() []byte {
	w := encoding.NewWriter(16 * len(m.ChunkNumbers))
	w.SeqHeader(len(m.ChunkNumbers))
	for i, cn := range m.ChunkNumbers {
		w.PutUint64(cn)
		w.PutUint64(m.Offsets[i])
	}
	return w.Bytes()
}

func (m *ChunkOffsetMap) Bytes() []byte {
	return encoding.WriteRecord(format.IdentChunkOffsetMap, format.CurrentVersion, m.bodyBytes())
}

// EncodeEncrypted AEAD-encrypts the map under dek, nonce tag NonceTagChunkOffsetMap.
func (m *ChunkOffsetMap) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	return encodeEncryptedMap(format.IdentChunkOffsetMap, format.NonceTagChunkOffsetMap, alg, dek, lastChunkNumber(m.ChunkNumbers), m.bodyBytes())
}

// ParseEncryptedChunkOffsetMap decodes an encrypted instance given lastChunk, the key the
// owning index table used to locate it.
func ParseEncryptedChunkOffsetMap(b []byte, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64) (*ChunkOffsetMap, error) {
	r, err := decodeEncryptedMap(b, format.IdentChunkOffsetMap, format.NonceTagChunkOffsetMap, alg, dek, lastChunk)
	if err != nil {
		return nil, err
	}
	return parseChunkOffsetMapBody(r)
}

func ParseChunkOffsetMap(b []byte) (*ChunkOffsetMap, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentChunkOffsetMap)
	if err != nil {
		return nil, err
	}
	return parseChunkOffsetMapBody(r)
}

func parseChunkOffsetMapBody(r *encoding.Reader) (*ChunkOffsetMap, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := &ChunkOffsetMap{ChunkNumbers: make([]uint64, 0, n), Offsets: make([]uint64, 0, n)}
	for i := 0; i < n; i++ {
		cn, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		off, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		m.ChunkNumbers = append(m.ChunkNumbers, cn)
		m.Offsets = append(m.Offsets, off)
	}
	return m, nil
}

// ChunkSizeMap records the on-disk (post-compression) byte size of every chunk's payload.
type ChunkSizeMap struct {
	ChunkNumbers []uint64
	Sizes        []uint64
}

func (m *ChunkSizeMap) bodyBytes() []byte {
	w := encoding.NewWriter(16 * len(m.ChunkNumbers))
	w.SeqHeader(len(m.ChunkNumbers))
	for i, cn := range m.ChunkNumbers {
		w.PutUint64(cn)
		w.PutUint64(m.Sizes[i])
	}
	return w.Bytes()
}

func (m *ChunkSizeMap) Bytes() []byte {
	return encoding.WriteRecord(format.IdentChunkSizeMap, format.CurrentVersion, m.bodyBytes())
}

// EncodeEncrypted AEAD-encrypts the map under dek, nonce tag NonceTagChunkSizeMap.
func (m *ChunkSizeMap) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	return encodeEncryptedMap(format.IdentChunkSizeMap, format.NonceTagChunkSizeMap, alg, dek, lastChunkNumber(m.ChunkNumbers), m.bodyBytes())
}

// ParseEncryptedChunkSizeMap decodes an encrypted instance given lastChunk.
func ParseEncryptedChunkSizeMap(b []byte, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64) (*ChunkSizeMap, error) {
	r, err := decodeEncryptedMap(b, format.IdentChunkSizeMap, format.NonceTagChunkSizeMap, alg, dek, lastChunk)
	if err != nil {
		return nil, err
	}
	return parseChunkSizeMapBody(r)
}

func ParseChunkSizeMap(b []byte) (*ChunkSizeMap, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentChunkSizeMap)
	if err != nil {
		return nil, err
	}
	return parseChunkSizeMapBody(r)
}

func parseChunkSizeMapBody(r *encoding.Reader) (*ChunkSizeMap, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := &ChunkSizeMap{ChunkNumbers: make([]uint64, 0, n), Sizes: make([]uint64, 0, n)}
	for i := 0; i < n; i++ {
		cn, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		size, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		m.ChunkNumbers = append(m.ChunkNumbers, cn)
		m.Sizes = append(m.Sizes, size)
	}
	return m, nil
}

// ChunkFlagsMap records the format.ChunkFlags bitfield of every chunk (compressed,
// same-bytes, duplicate, encrypted).
type ChunkFlagsMap struct {
	ChunkNumbers []uint64
	Flags        []format.ChunkFlags
}

func (m *ChunkFlagsMap) bodyBytes() []byte {
	w := encoding.NewWriter(9 * len(m.ChunkNumbers))
	w.SeqHeader(len(m.ChunkNumbers))
	for i, cn := range m.ChunkNumbers {
		w.PutUint64(cn)
		w.PutUint8(uint8(m.Flags[i]))
	}
	return w.Bytes()
}

func (m *ChunkFlagsMap) Bytes() []byte {
	return encoding.WriteRecord(format.IdentChunkFlagsMap, format.CurrentVersion, m.bodyBytes())
}

// EncodeEncrypted AEAD-encrypts the map under dek, nonce tag NonceTagChunkFlagsMap.
func (m *ChunkFlagsMap) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	return encodeEncryptedMap(format.IdentChunkFlagsMap, format.NonceTagChunkFlagsMap, alg, dek, lastChunkNumber(m.ChunkNumbers), m.bodyBytes())
}

// ParseEncryptedChunkFlagsMap decodes an encrypted instance given lastChunk.
func ParseEncryptedChunkFlagsMap(b []byte, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64) (*ChunkFlagsMap, error) {
	r, err := decodeEncryptedMap(b, format.IdentChunkFlagsMap, format.NonceTagChunkFlagsMap, alg, dek, lastChunk)
	if err != nil {
		return nil, err
	}
	return parseChunkFlagsMapBody(r)
}

func ParseChunkFlagsMap(b []byte) (*ChunkFlagsMap, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentChunkFlagsMap)
	if err != nil {
		return nil, err
	}
	return parseChunkFlagsMapBody(r)
}

func parseChunkFlagsMapBody(r *encoding.Reader) (*ChunkFlagsMap, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := &ChunkFlagsMap{ChunkNumbers: make([]uint64, 0, n), Flags: make([]format.ChunkFlags, 0, n)}
	for i := 0; i < n; i++ {
		cn, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		flags, err := r.GetUint8()
		if err != nil {
			return nil, err
		}
		m.ChunkNumbers = append(m.ChunkNumbers, cn)
		m.Flags = append(m.Flags, format.ChunkFlags(flags))
	}
	return m, nil
}

// ChunkXxHashMap records the xxhash64 integrity digest of every chunk's plaintext payload.
type ChunkXxHashMap struct {
	ChunkNumbers []uint64
	Hashes       []uint64
}

func (m *ChunkXxHashMap) bodyBytes() []byte {
	w := encoding.NewWriter(16 * len(m.ChunkNumbers))
	w.SeqHeader(len(m.ChunkNumbers))
	for i, cn := range m.ChunkNumbers {
		w.PutUint64(cn)
		w.PutUint64(m.Hashes[i])
	}
	return w.Bytes()
}

func (m *ChunkXxHashMap) Bytes() []byte {
	return encoding.WriteRecord(format.IdentChunkXxHashMap, format.CurrentVersion, m.bodyBytes())
}

// EncodeEncrypted AEAD-encrypts the map under dek, nonce tag NonceTagChunkXxHashMap.
func (m *ChunkXxHashMap) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	return encodeEncryptedMap(format.IdentChunkXxHashMap, format.NonceTagChunkXxHashMap, alg, dek, lastChunkNumber(m.ChunkNumbers), m.bodyBytes())
}

// ParseEncryptedChunkXxHashMap decodes an encrypted instance given lastChunk.
func ParseEncryptedChunkXxHashMap(b []byte, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64) (*ChunkXxHashMap, error) {
	r, err := decodeEncryptedMap(b, format.IdentChunkXxHashMap, format.NonceTagChunkXxHashMap, alg, dek, lastChunk)
	if err != nil {
		return nil, err
	}
	return parseChunkXxHashMapBody(r)
}

func ParseChunkXxHashMap(b []byte) (*ChunkXxHashMap, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentChunkXxHashMap)
	if err != nil {
		return nil, err
	}
	return parseChunkXxHashMapBody(r)
}

func parseChunkXxHashMapBody(r *encoding.Reader) (*ChunkXxHashMap, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := &ChunkXxHashMap{ChunkNumbers: make([]uint64, 0, n), Hashes: make([]uint64, 0, n)}
	for i := 0; i < n; i++ {
		cn, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		h, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		m.ChunkNumbers = append(m.ChunkNumbers, cn)
		m.Hashes = append(m.Hashes, h)
	}
	return m, nil
}

// ChunkSameBytesMap records the repeated byte value for every chunk whose flags mark it as
// ChunkFlagSameBytes (the whole chunk is n copies of one byte, so the chunk stream holds only a
// one-byte payload with that value).
type ChunkSameBytesMap struct {
	ChunkNumbers []uint64
	Values       []byte
}

func (m *ChunkSameBytesMap) bodyBytes() []byte {
	w := encoding.NewWriter(9 * len(m.ChunkNumbers))
	w.SeqHeader(len(m.ChunkNumbers))
	for i, cn := range m.ChunkNumbers {
		w.PutUint64(cn)
		w.PutUint8(m.Values[i])
	}
	return w.Bytes()
}

func (m *ChunkSameBytesMap) Bytes() []byte {
	return encoding.WriteRecord(format.IdentChunkSameBytesMap, format.CurrentVersion, m.bodyBytes())
}

// EncodeEncrypted AEAD-encrypts the map under dek, nonce tag NonceTagChunkSameByteMap.
func (m *ChunkSameBytesMap) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	return encodeEncryptedMap(format.IdentChunkSameBytesMap, format.NonceTagChunkSameByteMap, alg, dek, lastChunkNumber(m.ChunkNumbers), m.bodyBytes())
}

// ParseEncryptedChunkSameBytesMap decodes an encrypted instance given lastChunk.
func ParseEncryptedChunkSameBytesMap(b []byte, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64) (*ChunkSameBytesMap, error) {
	r, err := decodeEncryptedMap(b, format.IdentChunkSameBytesMap, format.NonceTagChunkSameByteMap, alg, dek, lastChunk)
	if err != nil {
		return nil, err
	}
	return parseChunkSameBytesMapBody(r)
}

func ParseChunkSameBytesMap(b []byte) (*ChunkSameBytesMap, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentChunkSameBytesMap)
	if err != nil {
		return nil, err
	}
	return parseChunkSameBytesMapBody(r)
}

func parseChunkSameBytesMapBody(r *encoding.Reader) (*ChunkSameBytesMap, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := &ChunkSameBytesMap{ChunkNumbers: make([]uint64, 0, n), Values: make([]byte, 0, n)}
	for i := 0; i < n; i++ {
		cn, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		v, err := r.GetUint8()
		if err != nil {
			return nil, err
		}
		m.ChunkNumbers = append(m.ChunkNumbers, cn)
		m.Values = append(m.Values, v)
	}
	return m, nil
}

// ChunkDedupMap records, for every chunk whose flags mark it as ChunkFlagDuplicate, the
// chunk_number of the earlier chunk whose plaintext it duplicates.
type ChunkDedupMap struct {
	ChunkNumbers []uint64
	DuplicateOf  []uint64
}

func (m *ChunkDedupMap) bodyBytes() []byte {
	w := encoding.NewWriter(16 * len(m.ChunkNumbers))
	w.SeqHeader(len(m.ChunkNumbers))
	for i, cn := range m.ChunkNumbers {
		w.PutUint64(cn)
		w.PutUint64(m.DuplicateOf[i])
	}
	return w.Bytes()
}

func (m *ChunkDedupMap) Bytes() []byte {
	return encoding.WriteRecord(format.IdentChunkDedupMap, format.CurrentVersion, m.bodyBytes())
}

// EncodeEncrypted AEAD-encrypts the map under dek, nonce tag NonceTagChunkDedupMap.
func (m *ChunkDedupMap) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte) ([]byte, error) {
	return encodeEncryptedMap(format.IdentChunkDedupMap, format.NonceTagChunkDedupMap, alg, dek, lastChunkNumber(m.ChunkNumbers), m.bodyBytes())
}

// ParseEncryptedChunkDedupMap decodes an encrypted instance given lastChunk.
func ParseEncryptedChunkDedupMap(b []byte, alg format.EncryptionAlgorithm, dek []byte, lastChunk uint64) (*ChunkDedupMap, error) {
	r, err := decodeEncryptedMap(b, format.IdentChunkDedupMap, format.NonceTagChunkDedupMap, alg, dek, lastChunk)
	if err != nil {
		return nil, err
	}
	return parseChunkDedupMapBody(r)
}

func ParseChunkDedupMap(b []byte) (*ChunkDedupMap, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentChunkDedupMap)
	if err != nil {
		return nil, err
	}
	return parseChunkDedupMapBody(r)
}

func parseChunkDedupMapBody(r *encoding.Reader) (*ChunkDedupMap, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := &ChunkDedupMap{ChunkNumbers: make([]uint64, 0, n), DuplicateOf: make([]uint64, 0, n)}
	for i := 0; i < n; i++ {
		cn, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		dup, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		m.ChunkNumbers = append(m.ChunkNumbers, cn)
		m.DuplicateOf = append(m.DuplicateOf, dup)
	}
	return m, nil
}

// LastChunkNumber returns the highest chunk_number this map instance covers, the key used by
// SegmentFooter/MainFooter index tables to locate it.
func (m *ChunkOffsetMap) LastChunkNumber() uint64 { return lastChunkNumber(m.ChunkNumbers) }

// Len reports how many entries are accumulated so far.
func (m *ChunkOffsetMap) Len() int { return len(m.ChunkNumbers) }

// LastChunkNumber returns the highest chunk_number this map instance covers.
func (m *ChunkSizeMap) LastChunkNumber() uint64 { return lastChunkNumber(m.ChunkNumbers) }

// Len reports how many entries are accumulated so far.
func (m *ChunkSizeMap) Len() int { return len(m.ChunkNumbers) }

// LastChunkNumber returns the highest chunk_number this map instance covers.
func (m *ChunkFlagsMap) LastChunkNumber() uint64 { return lastChunkNumber(m.ChunkNumbers) }

// Len reports how many entries are accumulated so far.
func (m *ChunkFlagsMap) Len() int { return len(m.ChunkNumbers) }

// LastChunkNumber returns the highest chunk_number this map instance covers.
func (m *ChunkXxHashMap) LastChunkNumber() uint64 { return lastChunkNumber(m.ChunkNumbers) }

// Len reports how many entries are accumulated so far.
func (m *ChunkXxHashMap) Len() int { return len(m.ChunkNumbers) }

// LastChunkNumber returns the highest chunk_number this map instance covers.
func (m *ChunkSameBytesMap) LastChunkNumber() uint64 { return lastChunkNumber(m.ChunkNumbers) }

// Len reports how many entries are accumulated so far.
func (m *ChunkSameBytesMap) Len() int { return len(m.ChunkNumbers) }

// LastChunkNumber returns the highest chunk_number this map instance covers.
func (m *ChunkDedupMap) LastChunkNumber() uint64 { return lastChunkNumber(m.ChunkNumbers) }

// Len reports how many entries are accumulated so far.
func (m *ChunkDedupMap) Len() int { return len(m.ChunkNumbers) }
