package reader

import "sort"

// chunkIndex turns one of MainFooter's flat chunk_number->segment maps into a structure that
// can answer "which side-map instance covers chunk_number" in O(log S) instead of a linear
// scan over the map. Side-map instances are flushed under the highest chunk_number they
// cover, so the covering instance for a given chunk_number is the smallest index key >=
// chunk_number; with the keys held sorted that's a single sort.Search.
type chunkIndex struct {
	m    map[uint64]uint64
	keys []uint64
}

func newChunkIndex(m map[uint64]uint64) chunkIndex {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return chunkIndex{m: m, keys: keys}
}

// find returns the covering instance's key and the segment it was flushed to.
func (idx chunkIndex) find(chunkNumber uint64) (key, segment uint64, ok bool) {
	i := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] >= chunkNumber })
	if i == len(idx.keys) {
		return 0, 0, false
	}
	key = idx.keys[i]
	segment, ok = idx.m[key]
	return key, segment, ok
}
