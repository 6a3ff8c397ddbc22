package ledger

// index maps a key (account, owner, or date) to the set of entry identifiers
// sharing it. Indices hold identifiers only, never entry references, so they
// can never dangle: a stale id simply misses on the primary map.
type index map[string]map[string]struct{}

func newIndex() index {
	return make(index)
}

func (ix index) add(key, id string) {
	set, ok := ix[key]
	if !ok {
		set = make(map[string]struct{})
		ix[key] = set
	}
	set[id] = struct{}{}
}

// remove detaches a single id. The key's other ids are untouched; the key
// itself is dropped once its set is empty.
func (ix index) remove(key, id string) {
	set, ok := ix[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(ix, key)
	}
}

func (ix index) ids(key string) []string {
	set := ix[key]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (ix index) clear() {
	for k := range ix {
		delete(ix, k)
	}
}
