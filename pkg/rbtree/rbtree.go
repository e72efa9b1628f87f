// Package rbtree implements a left-leaning red-black tree with int64
// keys and values, the ordered map behind the LSM memtable.
package rbtree

const (
	red   = true
	black = false
)

type node struct {
	key, val    int64
	left, right *node
	color       bool
	size        int64
}

// CompareFunc orders keys; nil means natural int64 order.
type CompareFunc func(a, b int64) int

// Tree is a sorted int64 -> int64 map. Not safe for concurrent use.
type Tree struct {
	root    *node
	compare CompareFunc

	onDelete func(key, val int64)

	// node freelist, chained through right pointers
	free    *node
	freeLen int
	freeMax int
}

// New creates a tree. A nil compare uses natural key order.
func New(compare CompareFunc) *Tree {
	return &Tree{compare: compare}
}

// NewPooled creates a tree that recycles up to maxFree removed nodes
// instead of releasing them to the garbage collector.
func NewPooled(compare CompareFunc, maxFree int) *Tree {
	return &Tree{compare: compare, freeMax: maxFree}
}

// OnDelete registers a callback invoked with each key/value pair as
// it is removed, including during Clear.
func (t *Tree) OnDelete(fn func(key, val int64)) { t.onDelete = fn }

func (t *Tree) newNode(key, val int64) *node {
	if t.free != nil {
		x := t.free
		t.free = x.right
		t.freeLen--
		*x = node{key: key, val: val, color: red, size: 1}
		return x
	}
	return &node{key: key, val: val, color: red, size: 1}
}

func (t *Tree) recycle(x *node) {
	if t.freeLen >= t.freeMax {
		return
	}
	x.left = nil
	x.right = t.free
	t.free = x
	t.freeLen++
}

func (t *Tree) cmp(a, b int64) int {
	if t.compare != nil {
		return t.compare(a, b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isRed(x *node) bool { return x != nil && x.color == red }

func size(x *node) int64 {
	if x == nil {
		return 0
	}
	return x.size
}

// Len returns the number of keys.
func (t *Tree) Len() int64 { return size(t.root) }

// Get returns the value for key.
func (t *Tree) Get(key int64) (int64, bool) {
	x := t.root
	for x != nil {
		switch c := t.cmp(key, x.key); {
		case c < 0:
			x = x.left
		case c > 0:
			x = x.right
		default:
			return x.val, true
		}
	}
	return 0, false
}

// Contains reports whether key is present.
func (t *Tree) Contains(key int64) bool {
	_, ok := t.Get(key)
	return ok
}

// Put inserts or updates key.
func (t *Tree) Put(key, val int64) {
	t.root = t.put(t.root, key, val)
	t.root.color = black
}

func (t *Tree) put(h *node, key, val int64) *node {
	if h == nil {
		return t.newNode(key, val)
	}
	switch c := t.cmp(key, h.key); {
	case c < 0:
		h.left = t.put(h.left, key, val)
	case c > 0:
		h.right = t.put(h.right, key, val)
	default:
		h.val = val
	}
	if isRed(h.right) && !isRed(h.left) {
		h = rotateLeft(h)
	}
	if isRed(h.left) && isRed(h.left.left) {
		h = rotateRight(h)
	}
	if isRed(h.left) && isRed(h.right) {
		flipColors(h)
	}
	h.size = size(h.left) + size(h.right) + 1
	return h
}

// Remove deletes key if present.
func (t *Tree) Remove(key int64) {
	val, ok := t.Get(key)
	if !ok {
		return
	}
	if !isRed(t.root.left) && !isRed(t.root.right) {
		t.root.color = red
	}
	t.root = t.remove(t.root, key)
	if t.root != nil {
		t.root.color = black
	}
	if t.onDelete != nil {
		t.onDelete(key, val)
	}
}

func (t *Tree) remove(h *node, key int64) *node {
	if h == nil {
		return nil
	}
	if t.cmp(key, h.key) < 0 {
		if !isRed(h.left) && !isRed(h.left.left) {
			h = moveRedLeft(h)
		}
		h.left = t.remove(h.left, key)
	} else {
		if isRed(h.left) {
			h = rotateRight(h)
		}
		if t.cmp(key, h.key) == 0 && h.right == nil {
			t.recycle(h)
			return nil
		}
		if !isRed(h.right) && !isRed(h.right.left) {
			h = moveRedRight(h)
		}
		if t.cmp(key, h.key) == 0 {
			x := min(h.right)
			h.key = x.key
			h.val = x.val
			h.right = t.removeMin(h.right)
		} else {
			h.right = t.remove(h.right, key)
		}
	}
	return balance(h)
}

// Min returns the smallest key.
func (t *Tree) Min() (key, val int64, ok bool) {
	if t.root == nil {
		return 0, 0, false
	}
	x := min(t.root)
	return x.key, x.val, true
}

// Max returns the largest key.
func (t *Tree) Max() (key, val int64, ok bool) {
	if t.root == nil {
		return 0, 0, false
	}
	x := t.root
	for x.right != nil {
		x = x.right
	}
	return x.key, x.val, true
}

// Clear drops all entries, firing the on-delete callback for each.
func (t *Tree) Clear() {
	if t.onDelete != nil {
		walk(t.root, func(key, val int64) bool {
			t.onDelete(key, val)
			return true
		})
	}
	t.root = nil
}

// Walk visits entries in key order until fn returns false.
func (t *Tree) Walk(fn func(key, val int64) bool) {
	walk(t.root, fn)
}

func walk(x *node, fn func(key, val int64) bool) bool {
	if x == nil {
		return true
	}
	if !walk(x.left, fn) {
		return false
	}
	if !fn(x.key, x.val) {
		return false
	}
	return walk(x.right, fn)
}

func rotateRight(h *node) *node {
	x := h.left
	h.left = x.right
	x.right = h
	x.color = h.color
	h.color = red
	x.size = h.size
	h.size = size(h.left) + size(h.right) + 1
	return x
}

func rotateLeft(h *node) *node {
	x := h.right
	h.right = x.left
	x.left = h
	x.color = h.color
	h.color = red
	x.size = h.size
	h.size = size(h.left) + size(h.right) + 1
	return x
}

func flipColors(h *node) {
	h.color = !h.color
	h.left.color = !h.left.color
	h.right.color = !h.right.color
}

func moveRedLeft(h *node) *node {
	flipColors(h)
	if isRed(h.right.left) {
		h.right = rotateRight(h.right)
		h = rotateLeft(h)
		flipColors(h)
	}
	return h
}

func moveRedRight(h *node) *node {
	flipColors(h)
	if isRed(h.left.left) {
		h = rotateRight(h)
		flipColors(h)
	}
	return h
}

func balance(h *node) *node {
	if isRed(h.right) {
		h = rotateLeft(h)
	}
	if isRed(h.left) && isRed(h.left.left) {
		h = rotateRight(h)
	}
	if isRed(h.left) && isRed(h.right) {
		flipColors(h)
	}
	h.size = size(h.left) + size(h.right) + 1
	return h
}

func min(x *node) *node {
	for x.left != nil {
		x = x.left
	}
	return x
}

func (t *Tree) removeMin(h *node) *node {
	if h.left == nil {
		t.recycle(h)
		return nil
	}
	if !isRed(h.left) && !isRed(h.left.left) {
		h = moveRedLeft(h)
	}
	h.left = t.removeMin(h.left)
	return balance(h)
}
