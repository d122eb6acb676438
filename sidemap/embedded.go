package sidemap

import (
	"encoding/binary"

	"go.etcd.io/bbolt"

	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

var entriesBucket = []byte("chunk_entries")

// EmbeddedKVCache persists preloaded side-map entries in a single bbolt database, so maps too
// large to hold in memory can still be cached. One bucket holds
// every Entry, binary-encoded and keyed by its big-endian chunk_number.
type EmbeddedKVCache struct {
	db *bbolt.DB
}

// NewEmbeddedKVCache opens (creating if absent) the bbolt database at path.
func NewEmbeddedKVCache(path string) (*EmbeddedKVCache, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindOutOfMemory, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &EmbeddedKVCache{db: db}, nil
}

func chunkKey(chunkNumber uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, chunkNumber)
	return b
}

func encodeEntry(e Entry) []byte {
	b := make([]byte, 8+8+8+8+1+8+1+8)
	off := 0
	putU64 := func(v uint64) {
		binary.BigEndian.PutUint64(b[off:], v)
		off += 8
	}
	putU64(e.ChunkNumber)
	putU64(e.Segment)
	putU64(e.Offset)
	putU64(e.Size)
	b[off] = byte(e.Flags)
	off++
	putU64(e.XxHash)
	b[off] = e.SameByte
	off++
	putU64(e.DuplicateOf)
	return b
}

func decodeEntry(b []byte) Entry {
	off := 0
	getU64 := func() uint64 {
		v := binary.BigEndian.Uint64(b[off:])
		off += 8
		return v
	}
	var e Entry
	e.ChunkNumber = getU64()
	e.Segment = getU64()
	e.Offset = getU64()
	e.Size = getU64()
	e.Flags = format.ChunkFlags(b[off])
	off++
	e.XxHash = getU64()
	e.SameByte = b[off]
	off++
	e.DuplicateOf = getU64()
	return e
}

func (c *EmbeddedKVCache) Put(entry Entry) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(entriesBucket).Put(chunkKey(entry.ChunkNumber), encodeEntry(entry))
	})
}

func (c *EmbeddedKVCache) Get(chunkNumber uint64) (Entry, bool, error) {
	var entry Entry
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(entriesBucket).Get(chunkKey(chunkNumber))
		if v == nil {
			return nil
		}
		found = true
		entry = decodeEntry(v)
		return nil
	})
	return entry, found, err
}

func (c *EmbeddedKVCache) All() ([]Entry, error) {
	var out []Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(k, v []byte) error {
			out = append(out, decodeEntry(v))
			return nil
		})
	})
	return out, err
}

func (c *EmbeddedKVCache) Close() error { return c.db.Close() }
