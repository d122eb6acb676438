package sidemap

// NoneCache implements the "None" preload mode: it caches nothing, so every Get is a miss and
// the caller must fetch the entry directly from the segment's side-maps.
type NoneCache struct{}

func NewNoneCache() *NoneCache { return &NoneCache{} }

func (*NoneCache) Put(Entry) error                 { return nil }
func (*NoneCache) Get(uint64) (Entry, bool, error) { return Entry{}, false, nil }
func (*NoneCache) All() ([]Entry, error)           { return nil, nil }
func (*NoneCache) Close() error                    { return nil }
