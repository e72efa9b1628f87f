// Package lsm implements a log-structured merge index mapping int64
// keys to int64 file offsets. Writes land in an in-memory red-black
// memtable; when the memtable fills it is flushed to an immutable
// sorted segment file, and segments are merged back into one once
// enough of them accumulate.
package lsm

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/basaltdb/basalt/pkg/buffer"
	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/logger"
	"github.com/basaltdb/basalt/pkg/rbtree"
)

const (
	// Tombstone is the offset value recorded by Delete. Get surfaces it
	// with ok=true so callers can tell a deleted key from an absent one.
	Tombstone int64 = -2

	// Suffix terminates every segment file name.
	Suffix = ".sst"

	// CompactionThreshold is the segment count that triggers a merge.
	CompactionThreshold = 10

	maxSegments = 1024
	headerSize  = 8  // i64 entry count
	entrySize   = 16 // i64 key + i64 offset
)

// Mode selects whether a tree accepts writes.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// segment is one immutable on-disk sorted run, memory-mapped for
// binary search.
type segment struct {
	path  string
	buf   *buffer.Buffer
	count int64
}

func openSegment(path string) (*segment, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "lsm: stat segment")
	}
	if fi.Size() < headerSize {
		return nil, errors.Newf(errors.ErrorTypeMalformed, "lsm: segment %s too short", path)
	}
	buf, err := buffer.Map(path, 0, int(fi.Size()))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "lsm: map segment %s", path)
	}
	s := &segment{path: path, buf: buf}
	s.count = int64(binary.LittleEndian.Uint64(buf.Array()[:headerSize]))
	if headerSize+s.count*entrySize > fi.Size() {
		buf.Free()
		return nil, errors.Newf(errors.ErrorTypeMalformed, "lsm: segment %s count %d exceeds file size", path, s.count)
	}
	return s, nil
}

func (s *segment) at(i int64) (key, offset int64) {
	p := s.buf.Array()[headerSize+i*entrySize:]
	key = int64(binary.LittleEndian.Uint64(p))
	offset = int64(binary.LittleEndian.Uint64(p[8:]))
	return key, offset
}

func (s *segment) keyAt(i int64) int64 {
	k, _ := s.at(i)
	return k
}

// search binary-searches the sorted run for key.
func (s *segment) search(key int64) (int64, bool) {
	lo, hi := int64(0), s.count-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		k, off := s.at(mid)
		switch {
		case k == key:
			return off, true
		case k < key:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0, false
}

func (s *segment) close() {
	if s.buf != nil {
		s.buf.Free()
		s.buf = nil
	}
}

// Tree is the LSM index. It is not internally synchronized; callers
// serialize access.
type Tree struct {
	path     string
	mode     Mode
	memtable *rbtree.Tree
	memMax   int64
	segments []*segment // newest first
	log      *zap.Logger
}

// rbtree node footprint used when deriving the memtable entry budget
// from a byte budget.
const nodeSize = 48

// Open opens or creates the index rooted at path. Existing segment
// files named <path>.NNNNN.sst are picked up, newest first.
// memMaxBytes bounds the memtable: small budgets are treated as
// byte counts at 16 bytes per entry, large ones divide by the real
// node footprint.
func Open(path string, mode Mode, memMaxBytes int64) (*Tree, error) {
	t := &Tree{
		path:     path,
		mode:     mode,
		memtable: rbtree.New(nil),
		log:      logger.With(zap.String("component", "lsm"), zap.String("path", path)),
	}

	if memMaxBytes < 1000*1000 {
		t.memMax = memMaxBytes / 16
	} else {
		t.memMax = memMaxBytes / (nodeSize + 16)
	}
	if t.memMax < 100 {
		t.memMax = 1000
	}

	if err := t.scan(); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// scan collects segment files sharing the tree's base name, sorted by
// path descending so the newest sequence number comes first.
func (t *Tree) scan() error {
	dir := filepath.Dir(t.path)
	base := filepath.Base(t.path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.ErrorTypeIO, "lsm: scan segment directory")
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, base) && strings.HasSuffix(name, Suffix) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	for _, p := range paths {
		if len(t.segments) >= maxSegments {
			break
		}
		s, err := openSegment(p)
		if err != nil {
			return err
		}
		t.segments = append(t.segments, s)
	}
	return nil
}

// Put records key→offset. A full memtable is flushed first, so a put
// can incur segment I/O.
func (t *Tree) Put(key, offset int64) error {
	if t.mode != ReadWrite {
		return errors.New(errors.ErrorTypeIO, "lsm: put on read-only tree")
	}
	if t.memtable.Len() >= t.memMax {
		if err := t.Flush(); err != nil {
			return err
		}
	}
	t.memtable.Put(key, offset)
	return nil
}

// Delete writes a tombstone for key. The key stays resolvable as
// Tombstone until compaction drops it.
func (t *Tree) Delete(key int64) error {
	return t.Put(key, Tombstone)
}

// Get resolves key, memtable first, then segments newest to oldest.
// A deleted key returns (Tombstone, true).
func (t *Tree) Get(key int64) (int64, bool) {
	if v, ok := t.memtable.Get(key); ok {
		return v, true
	}
	for _, s := range t.segments {
		if s.count == 0 {
			continue
		}
		if off, ok := s.search(key); ok {
			return off, true
		}
	}
	return 0, false
}

// nextSeq derives the next segment sequence number from the newest
// segment's file name.
func (t *Tree) nextSeq() int {
	if len(t.segments) == 0 {
		return 1
	}
	name := t.segments[0].path
	if !strings.HasSuffix(name, Suffix) || len(name) < len(Suffix)+5 {
		return 1
	}
	num := name[len(name)-len(Suffix)-5 : len(name)-len(Suffix)]
	n, err := strconv.Atoi(num)
	if err != nil {
		return 1
	}
	return n + 1
}

func (t *Tree) segmentPath(seq int) string {
	return fmt.Sprintf("%s.%05d%s", t.path, seq, Suffix)
}

// Flush writes the memtable in key order to a new segment, reopens it
// read-only at the head of the segment list, and clears the memtable.
// Reaching the compaction threshold triggers a merge.
func (t *Tree) Flush() error {
	count := t.memtable.Len()
	if count == 0 {
		return nil
	}

	path := t.segmentPath(t.nextSeq())
	t.log.Debug("flushing memtable", zap.Int64("entries", count), zap.String("segment", path))

	out := buffer.Alloc(headerSize + int(count)*entrySize)
	defer out.Free()
	out.PutI64(count)
	t.memtable.Walk(func(key, val int64) bool {
		out.PutI64(key)
		out.PutI64(val)
		return true
	})
	out.Flip()
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "lsm: write segment")
	}

	s, err := openSegment(path)
	if err != nil {
		return err
	}
	if len(t.segments) < maxSegments {
		t.segments = append([]*segment{s}, t.segments...)
	} else {
		s.close()
	}
	t.memtable.Clear()

	if len(t.segments) >= CompactionThreshold {
		return t.Compact()
	}
	return nil
}

// Compact k-way-merges every segment into one run named with sequence
// number 1. For duplicate keys the newest segment wins; tombstoned
// keys are dropped from the merged output entirely.
func (t *Tree) Compact() error {
	if len(t.segments) < 2 {
		return nil
	}
	t.log.Debug("compacting segments", zap.Int("count", len(t.segments)))

	var total int64
	for _, s := range t.segments {
		total += s.count
	}
	out := buffer.Alloc(headerSize + int(total)*entrySize)
	defer out.Free()
	out.PutI64(0) // count patched below

	cursors := make([]int64, len(t.segments))
	var (
		merged   int64
		lastKey  int64
		haveLast bool
	)
	for {
		best := -1
		var bestKey int64
		for i, s := range t.segments {
			if cursors[i] >= s.count {
				continue
			}
			k := s.keyAt(cursors[i])
			switch {
			case best == -1 || k < bestKey:
				best, bestKey = i, k
			case k == bestKey:
				// same key in an older segment, drop it
				cursors[i]++
			}
		}
		if best == -1 {
			break
		}
		key, off := t.segments[best].at(cursors[best])
		cursors[best]++
		if haveLast && key == lastKey {
			continue
		}
		lastKey, haveLast = key, true
		if off == Tombstone {
			continue
		}
		out.PutI64(key)
		out.PutI64(off)
		merged++
	}
	binary.LittleEndian.PutUint64(out.Array()[:headerSize], uint64(merged))

	tmp := t.path + ".merged" + Suffix
	out.Flip()
	if err := os.WriteFile(tmp, out.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "lsm: write merged segment")
	}

	for _, s := range t.segments {
		s.close()
		if err := os.Remove(s.path); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "lsm: remove old segment")
		}
	}
	t.segments = nil

	final := t.segmentPath(1)
	if err := os.Rename(tmp, final); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "lsm: rename merged segment")
	}
	s, err := openSegment(final)
	if err != nil {
		return err
	}
	t.segments = []*segment{s}
	t.log.Debug("compaction complete", zap.Int64("entries", merged))
	return nil
}

// MemEntries reports the current memtable size.
func (t *Tree) MemEntries() int64 { return t.memtable.Len() }

// MemMax reports the memtable entry budget.
func (t *Tree) MemMax() int64 { return t.memMax }

// Segments reports the number of on-disk segments, with the newest
// segment's entry counts first.
func (t *Tree) Segments() []int64 {
	counts := make([]int64, len(t.segments))
	for i, s := range t.segments {
		counts[i] = s.count
	}
	return counts
}

// Close flushes the memtable when the tree was opened read-write, then
// releases every segment mapping.
func (t *Tree) Close() error {
	var first error
	if t.mode == ReadWrite {
		first = t.Flush()
	}
	for _, s := range t.segments {
		s.close()
	}
	t.segments = nil
	return first
}
