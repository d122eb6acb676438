package encoding

import "github.com/zetaforensics/zff/zfferr"

// extValueTag identifies the concrete type carried by an ExtValue on the wire, mirroring
// original_source's MetadataExtendedValue tagged union (file_header.rs).
type extValueTag uint8

const (
	extTagU8 extValueTag = iota
	extTagU16
	extTagU32
	extTagU64
	extTagI8
	extTagI16
	extTagI32
	extTagI64
	extTagF32
	extTagF64
	extTagBool
	extTagString
	extTagByteArray
	extTagVector
	extTagHashmap
	extTagBTreeMap
)

// ExtValue is a single tagged value in a FileHeader's metadata_ext mapping. Exactly one of
// the typed fields is meaningful, selected by Tag; use the NewExt* constructors rather than
// setting fields directly.
type ExtValue struct {
	tag extValueTag

	u64 uint64
	i64 int64
	f64 float64
	b   bool
	s   string
	by  []byte
	vec []ExtValue
	m   map[string]ExtValue
}

func NewExtU8(v uint8) ExtValue    { return ExtValue{tag: extTagU8, u64: uint64(v)} }
func NewExtU16(v uint16) ExtValue  { return ExtValue{tag: extTagU16, u64: uint64(v)} }
func NewExtU32(v uint32) ExtValue  { return ExtValue{tag: extTagU32, u64: uint64(v)} }
func NewExtU64(v uint64) ExtValue  { return ExtValue{tag: extTagU64, u64: v} }
func NewExtI8(v int8) ExtValue     { return ExtValue{tag: extTagI8, i64: int64(v)} }
func NewExtI16(v int16) ExtValue   { return ExtValue{tag: extTagI16, i64: int64(v)} }
func NewExtI32(v int32) ExtValue   { return ExtValue{tag: extTagI32, i64: int64(v)} }
func NewExtI64(v int64) ExtValue   { return ExtValue{tag: extTagI64, i64: v} }
func NewExtF32(v float32) ExtValue { return ExtValue{tag: extTagF32, f64: float64(v)} }
func NewExtF64(v float64) ExtValue { return ExtValue{tag: extTagF64, f64: v} }
func NewExtBool(v bool) ExtValue   { return ExtValue{tag: extTagBool, b: v} }
func NewExtString(v string) ExtValue { return ExtValue{tag: extTagString, s: v} }
func NewExtByteArray(v []byte) ExtValue { return ExtValue{tag: extTagByteArray, by: v} }
func NewExtVector(v []ExtValue) ExtValue { return ExtValue{tag: extTagVector, vec: v} }
func NewExtMap(v map[string]ExtValue) ExtValue { return ExtValue{tag: extTagHashmap, m: v} }

// AsString returns the decoded string value and whether the tag was a string.
func (v ExtValue) AsString() (string, bool) { return v.s, v.tag == extTagString }

// AsUint64 returns the decoded unsigned value (any Uxx tag) and whether the tag was unsigned.
func (v ExtValue) AsUint64() (uint64, bool) {
	switch v.tag {
	case extTagU8, extTagU16, extTagU32, extTagU64:
		return v.u64, true
	default:
		return 0, false
	}
}

func (w *Writer) PutExtValue(v ExtValue) {
	w.PutUint8(uint8(v.tag))
	switch v.tag {
	case extTagU8:
		w.PutUint8(uint8(v.u64))
	case extTagU16:
		w.PutUint16(uint16(v.u64))
	case extTagU32:
		w.PutUint32(uint32(v.u64))
	case extTagU64:
		w.PutUint64(v.u64)
	case extTagI8:
		w.PutInt8(int8(v.i64))
	case extTagI16:
		w.PutInt16(int16(v.i64))
	case extTagI32:
		w.PutInt32(int32(v.i64))
	case extTagI64:
		w.PutInt64(v.i64)
	case extTagF32:
		w.PutFloat32(float32(v.f64))
	case extTagF64:
		w.PutFloat64(v.f64)
	case extTagBool:
		w.PutBool(v.b)
	case extTagString:
		w.PutString(v.s)
	case extTagByteArray:
		w.PutBytes(v.by)
	case extTagVector:
		w.SeqHeader(len(v.vec))
		for _, e := range v.vec {
			w.PutExtValue(e)
		}
	case extTagHashmap, extTagBTreeMap:
		w.SeqHeader(len(v.m))
		for k, e := range v.m {
			w.PutString(k)
			w.PutExtValue(e)
		}
	}
}

func (r *Reader) GetExtValue() (ExtValue, error) {
	tagByte, err := r.GetUint8()
	if err != nil {
		return ExtValue{}, err
	}
	tag := extValueTag(tagByte)
	switch tag {
	case extTagU8:
		v, err := r.GetUint8()
		return ExtValue{tag: tag, u64: uint64(v)}, err
	case extTagU16:
		v, err := r.GetUint16()
		return ExtValue{tag: tag, u64: uint64(v)}, err
	case extTagU32:
		v, err := r.GetUint32()
		return ExtValue{tag: tag, u64: uint64(v)}, err
	case extTagU64:
		v, err := r.GetUint64()
		return ExtValue{tag: tag, u64: v}, err
	case extTagI8:
		v, err := r.GetInt8()
		return ExtValue{tag: tag, i64: int64(v)}, err
	case extTagI16:
		v, err := r.GetInt16()
		return ExtValue{tag: tag, i64: int64(v)}, err
	case extTagI32:
		v, err := r.GetInt32()
		return ExtValue{tag: tag, i64: int64(v)}, err
	case extTagI64:
		v, err := r.GetInt64()
		return ExtValue{tag: tag, i64: v}, err
	case extTagF32:
		v, err := r.GetFloat32()
		return ExtValue{tag: tag, f64: float64(v)}, err
	case extTagF64:
		v, err := r.GetFloat64()
		return ExtValue{tag: tag, f64: v}, err
	case extTagBool:
		v, err := r.GetBool()
		return ExtValue{tag: tag, b: v}, err
	case extTagString:
		v, err := r.GetString()
		return ExtValue{tag: tag, s: v}, err
	case extTagByteArray:
		v, err := r.GetBytes()
		return ExtValue{tag: tag, by: v}, err
	case extTagVector:
		n, err := r.SeqHeader()
		if err != nil {
			return ExtValue{}, err
		}
		vec := make([]ExtValue, 0, n)
		for i := 0; i < n; i++ {
			e, err := r.GetExtValue()
			if err != nil {
				return ExtValue{}, err
			}
			vec = append(vec, e)
		}
		return ExtValue{tag: tag, vec: vec}, nil
	case extTagHashmap, extTagBTreeMap:
		n, err := r.SeqHeader()
		if err != nil {
			return ExtValue{}, err
		}
		m := make(map[string]ExtValue, n)
		for i := 0; i < n; i++ {
			k, err := r.GetString()
			if err != nil {
				return ExtValue{}, err
			}
			e, err := r.GetExtValue()
			if err != nil {
				return ExtValue{}, err
			}
			m[k] = e
		}
		return ExtValue{tag: tag, m: m}, nil
	default:
		return ExtValue{}, zfferr.Newf(zfferr.KindUnknownMetadataExtendedType, "tag %d", tagByte)
	}
}

// PutExtMap writes a mapping<string, ExtValue> (used for FileHeader.metadata_ext).
func (w *Writer) PutExtMap(m map[string]ExtValue) {
	w.SeqHeader(len(m))
	for k, v := range m {
		w.PutString(k)
		w.PutExtValue(v)
	}
}

// GetExtMap reads a mapping<string, ExtValue>.
func (r *Reader) GetExtMap() (map[string]ExtValue, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := make(map[string]ExtValue, n)
	for i := 0; i < n; i++ {
		k, err := r.GetString()
		if err != nil {
			return nil, err
		}
		v, err := r.GetExtValue()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
