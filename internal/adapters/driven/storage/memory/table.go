package memory

import (
	"cmp"
	"slices"
	"sync"
)

// table is a mutex-guarded map keyed by record ID. Reads hand out copies,
// so callers can never mutate stored records.
type table[V any] struct {
	mu   sync.RWMutex
	rows map[string]V
}

func newTable[V any]() *table[V] {
	return &table[V]{rows: make(map[string]V)}
}

func (t *table[V]) put(id string, v V) {
	t.mu.Lock()
	t.rows[id] = v
	t.mu.Unlock()
}

func (t *table[V]) get(id string) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[V]) del(id string) {
	t.mu.Lock()
	delete(t.rows, id)
	t.mu.Unlock()
}

// find returns the first row matching keep, in key order.
func (t *table[V]) find(keep func(V) bool) (V, bool) {
	rows := t.filter(keep)
	if len(rows) == 0 {
		var zero V
		return zero, false
	}
	return rows[0], true
}

// filter returns rows matching keep, or all rows when keep is nil, in key order.
func (t *table[V]) filter(keep func(V) bool) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.rows))
	for k, v := range t.rows {
		if keep == nil || keep(v) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = t.rows[k]
	}
	return out
}

// sortedBy returns all rows matching keep ordered by key(v).
func sortedBy[V any, K cmp.Ordered](t *table[V], keep func(V) bool, key func(V) K) []V {
	out := t.filter(keep)
	slices.SortStableFunc(out, func(a, b V) int { return cmp.Compare(key(a), key(b)) })
	return out
}
