// Package mmap provides memory-mapped file regions for zero-copy reads.
package mmap

import (
	"os"

	"github.com/basaltdb/basalt/pkg/errors"
)

// Region is a read-only memory-mapped view of a file range.
type Region struct {
	data []byte
}

// Open maps length bytes of the file at path starting at offset.
// The offset must be page-aligned.
func Open(path string, offset int64, length int) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "open %s", path)
	}
	defer f.Close()

	if length <= 0 {
		st, err := f.Stat()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeIO, "stat %s", path)
		}
		length = int(st.Size() - offset)
	}
	if length <= 0 {
		return nil, errors.Newf(errors.ErrorTypeIO, "empty mapping for %s", path)
	}

	data, err := mmap(int(f.Fd()), offset, length, ProtRead, MapShared)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "mmap %s", path)
	}
	// Advisory only; mapping works without it.
	_ = madvise(data, MadvSequential)

	return &Region{data: data}, nil
}

// Bytes returns the mapped byte range. Valid until Close.
func (r *Region) Bytes() []byte {
	return r.data
}

// Willneed hints the kernel to fault in the whole region ahead of use.
func (r *Region) Willneed() {
	_ = madvise(r.data, MadvWillneed)
}

// Close unmaps the region.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := munmap(r.data)
	r.data = nil
	return err
}
