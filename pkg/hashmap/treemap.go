package hashmap

import "github.com/basaltdb/basalt/pkg/rbtree"

// TreeMap presents the Map method set over an ordered red-black tree
// with int64 keys and values. Range visits entries in ascending key
// order rather than insertion order, which makes it the right backing
// store when callers need ordered iteration or min/max queries.
type TreeMap struct {
	tree *rbtree.Tree
}

// NewTreeMap returns an ordered map. compare may be nil for raw int64
// ordering.
func NewTreeMap(compare rbtree.CompareFunc) *TreeMap {
	return &TreeMap{tree: rbtree.New(compare)}
}

func (t *TreeMap) Len() int { return int(t.tree.Len()) }

func (t *TreeMap) Put(key, val int64) { t.tree.Put(key, val) }

func (t *TreeMap) Get(key int64) (int64, bool) { return t.tree.Get(key) }

func (t *TreeMap) Contains(key int64) bool { return t.tree.Contains(key) }

func (t *TreeMap) Remove(key int64) bool {
	if !t.tree.Contains(key) {
		return false
	}
	t.tree.Remove(key)
	return true
}

func (t *TreeMap) Clear() { t.tree.Clear() }

// Range walks entries in ascending key order until f returns false.
func (t *TreeMap) Range(f func(key, val int64) bool) { t.tree.Walk(f) }

// Min returns the smallest key and its value.
func (t *TreeMap) Min() (key, val int64, ok bool) { return t.tree.Min() }

// Max returns the largest key and its value.
func (t *TreeMap) Max() (key, val int64, ok bool) { return t.tree.Max() }
