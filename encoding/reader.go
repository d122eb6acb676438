package encoding

import "github.com/zetaforensics/zff/zfferr"

// Reader is a cursor over an in-memory encoded record, mirroring Writer's layout. Every Get*
// method advances the cursor and returns zfferr.KindTruncatedRecord if the remaining bytes
// are too short.
type Reader struct {
	b   []byte
	pos int
}

// NewReader wraps b for sequential decoding. b is not copied.
func NewReader(b []byte) *Reader { return &Reader{b: b} }

// Pos returns the current read offset into the wrapped slice.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.b) - r.pos }

// Remainder returns every unread byte without a length prefix, advancing the cursor to the
// end. Used for bodies that are a single opaque ciphertext rather than a framed value.
func (r *Reader) Remainder() []byte { return r.take(r.Remaining()) }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return zfferr.Newf(zfferr.KindTruncatedRecord, "need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

func (r *Reader) take(n int) []byte {
	b := r.b[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) GetUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.take(1)[0], nil
}

func (r *Reader) GetInt8() (int8, error) {
	v, err := r.GetUint8()
	return int8(v), err
}

func (r *Reader) GetBool() (bool, error) {
	v, err := r.GetUint8()
	return v != 0, err
}

func (r *Reader) GetUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	return le.Uint16(r.take(2)), nil
}

func (r *Reader) GetInt16() (int16, error) {
	v, err := r.GetUint16()
	return int16(v), err
}

func (r *Reader) GetUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	return le.Uint32(r.take(4)), nil
}

func (r *Reader) GetInt32() (int32, error) {
	v, err := r.GetUint32()
	return int32(v), err
}

func (r *Reader) GetUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	return le.Uint64(r.take(8)), nil
}

func (r *Reader) GetInt64() (int64, error) {
	v, err := r.GetUint64()
	return int64(v), err
}

func (r *Reader) GetFloat32() (float32, error) {
	v, err := r.GetUint32()
	return mathFloat32frombits(v), err
}

func (r *Reader) GetFloat64() (float64, error) {
	v, err := r.GetUint64()
	return mathFloat64frombits(v), err
}

func (r *Reader) GetBytes() ([]byte, error) {
	n, err := r.GetUint64()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.take(int(n)))
	return out, nil
}

func (r *Reader) GetString() (string, error) {
	b, err := r.GetBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetUint32BE reads a big-endian uint32; used only for the record identifier field.
func (r *Reader) GetUint32BE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	b := r.take(4)
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// SeqHeader reads the u64 element count prefixing a sequence<T> or mapping<K,V>.
func (r *Reader) SeqHeader() (int, error) {
	n, err := r.GetUint64()
	return int(n), err
}
