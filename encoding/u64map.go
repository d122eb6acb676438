package encoding

// PutUint64Map writes a mapping<u64,u64>, used for object/footer offset tables and side-map
// index tables.
func (w *Writer) PutUint64Map(m map[uint64]uint64) {
	w.SeqHeader(len(m))
	for k, v := range m {
		w.PutUint64(k)
		w.PutUint64(v)
	}
}

// GetUint64Map reads a mapping<u64,u64>.
func (r *Reader) GetUint64Map() (map[uint64]uint64, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	m := make(map[uint64]uint64, n)
	for i := 0; i < n; i++ {
		k, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		v, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// PutUint64Slice writes a sequence<u64>.
func (w *Writer) PutUint64Slice(s []uint64) {
	w.SeqHeader(len(s))
	for _, v := range s {
		w.PutUint64(v)
	}
}

// GetUint64Slice reads a sequence<u64>.
func (r *Reader) GetUint64Slice() ([]uint64, error) {
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	s := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		v, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		s = append(s, v)
	}
	return s, nil
}
