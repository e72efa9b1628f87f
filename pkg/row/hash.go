package row

import "github.com/basaltdb/basalt/pkg/variant"

const (
	golden32 = 0x9E3779B9
	golden64 = 0x9E3779B97F4A7C15
)

// Hash32 computes a stable 32-bit hash over all cells. The column
// count folds into the seed and every column perturbs it, so column
// order matters.
func (r *Row) Hash32(seed uint32) uint32 {
	h := variant.Fmix32(seed ^ uint32(len(r.meta.Columns)) ^ golden32)
	for i := range r.cells {
		colSeed := h + uint32(i)*golden32
		h ^= r.cells[i].Hash32(colSeed)
		h = h<<13 | h>>19
		h *= 0x85ebca6b
	}
	return variant.Fmix32(h)
}

// Hash64 is the 64-bit companion of Hash32.
func (r *Row) Hash64(seed uint64) uint64 {
	h := variant.Fmix64(seed ^ uint64(len(r.meta.Columns)) ^ golden64)
	for i := range r.cells {
		colSeed := h + uint64(i)*golden64
		h ^= r.cells[i].Hash64(colSeed)
		h = h<<27 | h>>37
		h *= 0x9ddfea08eb382d69
	}
	return variant.Fmix64(h)
}
