// Package hashmap provides a flat open-addressing hash table with an
// intrusive doubly linked list threading every live entry. The list
// records insertion order by default; LRU maps promote entries to the
// tail on access so the head is always the coldest entry, giving O(1)
// eviction when a maximum size is set.
//
// Deletion uses backward-shift compaction instead of leaving permanent
// tombstones: entries later in the probe chain are moved back over the
// hole whenever their home slot falls outside the gap. Tombstones only
// appear transiently and are reused by the next insert that probes past
// them.
package hashmap

import (
	"github.com/cespare/xxhash/v2"
)

const (
	defaultCapacity = 16
	maxLoadNum      = 3
	maxLoadDen      = 4
)

// Hasher maps a key to a 64-bit hash. The low bits select the slot, so
// hashers must mix well in the low word.
type Hasher[K comparable] func(K) uint64

// Int64Hasher is the default hasher for integer keys: a Fibonacci
// multiplicative hash over the low 32 bits.
func Int64Hasher(k int64) uint64 {
	return uint64(uint32(k) * 2654435761)
}

// StringHasher is the default hasher for string keys.
func StringHasher(k string) uint64 {
	return xxhash.Sum64String(k)
}

const (
	slotEmpty uint8 = iota
	slotUsed
	slotTombstone
)

const nilIdx = int32(-1)

type entry[K comparable, V any] struct {
	key      K
	val      V
	occupied uint8
	// intrusive list links, indices into Map.entries
	prev, next int32
}

// Map is a flat open-addressing hash table. It is not safe for
// concurrent use; callers serialize access the same way they do for
// rows and buffers.
type Map[K comparable, V any] struct {
	entries []entry[K, V]
	mask    uint64 // capacity-1 when capacity is a power of two, else 0
	count   int
	maxSize int  // evict oldest when count exceeds this; 0 disables
	access  bool // move entries to the list tail on Get and update

	head, tail int32 // list endpoints, nilIdx when empty

	hash    Hasher[K]
	onEvict func(K, V)
}

// New returns a map that iterates in insertion order. capacity is
// rounded up internally as the map grows; zero picks a small default.
func New[K comparable, V any](capacity int, hash Hasher[K]) *Map[K, V] {
	return newMap[K, V](capacity, 0, hash, false)
}

// NewLRU returns a map bounded to maxSize entries. Inserting beyond the
// bound evicts the least recently used entry, and both Get and update
// refresh an entry's recency.
func NewLRU[K comparable, V any](capacity, maxSize int, hash Hasher[K]) *Map[K, V] {
	return newMap[K, V](capacity, maxSize, hash, true)
}

func newMap[K comparable, V any](capacity, maxSize int, hash Hasher[K], access bool) *Map[K, V] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	m := &Map[K, V]{
		maxSize: maxSize,
		access:  access,
		hash:    hash,
		head:    nilIdx,
		tail:    nilIdx,
	}
	m.entries = make([]entry[K, V], capacity)
	if capacity&(capacity-1) == 0 {
		m.mask = uint64(capacity - 1)
	}
	return m
}

// OnEvict registers a callback invoked with each entry dropped by LRU
// eviction, Remove, Clear, or an overwriting Put.
func (m *Map[K, V]) OnEvict(f func(K, V)) { m.onEvict = f }

// Len reports the number of live entries.
func (m *Map[K, V]) Len() int { return m.count }

func (m *Map[K, V]) slot(h uint64) uint64 {
	if m.mask != 0 {
		return h & m.mask
	}
	return h % uint64(len(m.entries))
}

func (m *Map[K, V]) nextSlot(i uint64) uint64 {
	if m.mask != 0 {
		return (i + 1) & m.mask
	}
	return (i + 1) % uint64(len(m.entries))
}

// findSlot probes for key. It returns the occupied entry index when the
// key is present, or nilIdx plus the index the key should be inserted
// at (the first tombstone seen, else the first empty slot).
func (m *Map[K, V]) findSlot(key K) (found int32, insertAt uint64) {
	const noTombstone = ^uint64(0)
	idx := m.slot(m.hash(key))
	start := idx
	firstTombstone := noTombstone
	for {
		e := &m.entries[idx]
		switch e.occupied {
		case slotEmpty:
			if firstTombstone != noTombstone {
				return nilIdx, firstTombstone
			}
			return nilIdx, idx
		case slotTombstone:
			if firstTombstone == noTombstone {
				firstTombstone = idx
			}
		case slotUsed:
			if e.key == key {
				return int32(idx), idx
			}
		}
		idx = m.nextSlot(idx)
		if idx == start {
			break
		}
	}
	if firstTombstone != noTombstone {
		return nilIdx, firstTombstone
	}
	return nilIdx, start
}

// Put inserts or updates key. Updating an existing key refreshes its
// recency only in access-order maps.
func (m *Map[K, V]) Put(key K, val V) {
	if (m.count+1)*maxLoadDen > len(m.entries)*maxLoadNum {
		m.grow()
	}
	found, insertAt := m.findSlot(key)
	if found != nilIdx {
		e := &m.entries[found]
		if m.onEvict != nil {
			m.onEvict(e.key, e.val)
		}
		e.val = val
		if m.access && m.maxSize > 0 {
			m.listRemove(found)
			m.listAppend(found)
		}
		return
	}
	e := &m.entries[insertAt]
	e.key = key
	e.val = val
	e.occupied = slotUsed
	m.listAppend(int32(insertAt))
	m.count++
	if m.maxSize > 0 && m.count > m.maxSize {
		m.evictOldest()
	}
}

// Get looks up key. In access-order maps a hit moves the entry to the
// most recently used position.
func (m *Map[K, V]) Get(key K) (V, bool) {
	found, _ := m.findSlot(key)
	if found == nilIdx {
		var zero V
		return zero, false
	}
	if m.access && m.maxSize > 0 {
		m.listRemove(found)
		m.listAppend(found)
	}
	return m.entries[found].val, true
}

// Contains reports whether key is present without touching recency.
func (m *Map[K, V]) Contains(key K) bool {
	found, _ := m.findSlot(key)
	return found != nilIdx
}

// Remove deletes key, reporting whether it was present. The probe chain
// is compacted in place so lookups never cross stale tombstones.
func (m *Map[K, V]) Remove(key K) bool {
	found, _ := m.findSlot(key)
	if found == nilIdx {
		return false
	}
	m.deleteAt(found)
	return true
}

// deleteAt unlinks the entry at index i and backward-shifts the rest of
// its probe chain over the hole. An entry at j moves into the hole only
// when its home slot h does not lie in the half-open range (i, j],
// accounting for wraparound.
func (m *Map[K, V]) deleteAt(idx int32) {
	e := &m.entries[idx]
	m.listRemove(idx)
	if m.onEvict != nil {
		m.onEvict(e.key, e.val)
	}
	m.count--

	i := uint64(idx)
	j := m.nextSlot(i)
	for m.entries[j].occupied == slotUsed {
		h := m.slot(m.hash(m.entries[j].key))
		if (i <= j && (h <= i || h > j)) || (i > j && h <= i && h > j) {
			m.moveEntry(int32(j), int32(i))
			i = j
		}
		j = m.nextSlot(j)
	}
	m.clearEntry(int32(i))
}

// moveEntry relocates the entry at src into dst and repairs the list
// links of its neighbors so the intrusive list keeps pointing at it.
func (m *Map[K, V]) moveEntry(src, dst int32) {
	m.entries[dst] = m.entries[src]
	e := &m.entries[dst]
	if e.prev != nilIdx {
		m.entries[e.prev].next = dst
	} else {
		m.head = dst
	}
	if e.next != nilIdx {
		m.entries[e.next].prev = dst
	} else {
		m.tail = dst
	}
}

func (m *Map[K, V]) clearEntry(i int32) {
	var zero entry[K, V]
	m.entries[i] = zero
}

func (m *Map[K, V]) evictOldest() {
	if m.head == nilIdx {
		return
	}
	m.deleteAt(m.head)
}

func (m *Map[K, V]) listAppend(i int32) {
	e := &m.entries[i]
	e.prev = m.tail
	e.next = nilIdx
	if m.tail != nilIdx {
		m.entries[m.tail].next = i
	} else {
		m.head = i
	}
	m.tail = i
}

func (m *Map[K, V]) listRemove(i int32) {
	e := &m.entries[i]
	if e.prev != nilIdx {
		m.entries[e.prev].next = e.next
	} else {
		m.head = e.next
	}
	if e.next != nilIdx {
		m.entries[e.next].prev = e.prev
	} else {
		m.tail = e.prev
	}
	e.prev, e.next = nilIdx, nilIdx
}

// grow doubles the table and reinserts every entry in list order, so
// insertion/access order survives a resize.
func (m *Map[K, V]) grow() {
	old := m.entries
	oldHead := m.head

	capacity := len(old) * 2
	m.entries = make([]entry[K, V], capacity)
	if capacity&(capacity-1) == 0 {
		m.mask = uint64(capacity - 1)
	} else {
		m.mask = 0
	}
	m.count = 0
	m.head, m.tail = nilIdx, nilIdx

	for i := oldHead; i != nilIdx; i = old[i].next {
		_, insertAt := m.findSlot(old[i].key)
		e := &m.entries[insertAt]
		e.key = old[i].key
		e.val = old[i].val
		e.occupied = slotUsed
		m.listAppend(int32(insertAt))
		m.count++
	}
}

// Clear drops every entry, invoking the evict callback on each in list
// order, and keeps the current capacity.
func (m *Map[K, V]) Clear() {
	if m.onEvict != nil {
		for i := m.head; i != nilIdx; i = m.entries[i].next {
			m.onEvict(m.entries[i].key, m.entries[i].val)
		}
	}
	for i := range m.entries {
		var zero entry[K, V]
		m.entries[i] = zero
	}
	m.count = 0
	m.head, m.tail = nilIdx, nilIdx
}

// Range walks entries in list order (oldest first) until f returns
// false. Recency is not updated.
func (m *Map[K, V]) Range(f func(key K, val V) bool) {
	for i := m.head; i != nilIdx; {
		next := m.entries[i].next
		if !f(m.entries[i].key, m.entries[i].val) {
			return
		}
		i = next
	}
}

// Oldest returns the entry at the head of the list, the next eviction
// candidate in an LRU map.
func (m *Map[K, V]) Oldest() (K, V, bool) {
	if m.head == nilIdx {
		var k K
		var v V
		return k, v, false
	}
	e := &m.entries[m.head]
	return e.key, e.val, true
}
