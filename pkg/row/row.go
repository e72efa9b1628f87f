package row

import (
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/basaltdb/basalt/pkg/decimal"
	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/variant"
)

// NoRowID marks a row that has not been assigned a storage position.
const NoRowID = -1

// Row is one record of a schema: a cell per column plus the storage
// rowid. Rows are reference counted so pooled instances recycle only
// after the last holder releases them.
type Row struct {
	meta  *Meta
	rowid int64
	cells []variant.Variant
	refs  atomic.Int32
	pool  *Pool
}

// New creates a row for the schema with column defaults applied.
func New(meta *Meta) (*Row, error) {
	if meta == nil || len(meta.Columns) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "row requires a schema with columns")
	}
	r := &Row{
		meta:  meta,
		rowid: NoRowID,
		cells: make([]variant.Variant, len(meta.Columns)),
	}
	r.refs.Store(1)
	r.applyDefaults()
	return r, nil
}

func (r *Row) applyDefaults() {
	for i := range r.meta.Columns {
		if def := r.meta.Columns[i].Default; def != "" {
			var tmp variant.Variant
			tmp.SetStringRef([]byte(def))
			_ = r.Set(i, &tmp)
		}
	}
}

// Meta returns the row's schema.
func (r *Row) Meta() *Meta { return r.meta }

// ID returns the storage rowid, NoRowID if unassigned.
func (r *Row) ID() int64 { return r.rowid }

// SetID assigns the storage rowid.
func (r *Row) SetID(id int64) { r.rowid = id }

// Len returns the number of cells.
func (r *Row) Len() int { return len(r.cells) }

// Retain increments the reference count and returns the row.
func (r *Row) Retain() *Row {
	r.refs.Add(1)
	return r
}

// Release drops one reference. The last release resets the row and
// returns it to its pool when it came from one.
func (r *Row) Release() {
	if r.refs.Add(-1) != 0 {
		return
	}
	if r.pool != nil {
		r.pool.put(r)
	}
}

// Cell returns the variant at column i for direct access.
func (r *Row) Cell(i int) (*variant.Variant, error) {
	if i < 0 || i >= len(r.cells) {
		return nil, errors.Newf(errors.ErrorTypeBounds, "column index %d out of range [0,%d)", i, len(r.cells))
	}
	return &r.cells[i], nil
}

// IsNull reports whether the cell at column i holds Null.
func (r *Row) IsNull(i int) bool {
	if i < 0 || i >= len(r.cells) {
		return true
	}
	return r.cells[i].IsNull()
}

// IsZero reports whether the cell holds the ZERO marker or a numeric
// zero.
func (r *Row) IsZero(i int) bool {
	if i < 0 || i >= len(r.cells) {
		return false
	}
	v := &r.cells[i]
	switch v.Type() {
	case variant.Zero:
		return true
	case variant.Int8, variant.Uint8, variant.Int16, variant.Uint16,
		variant.Int32, variant.Uint32, variant.Int64:
		n, _ := v.Int64Value()
		return n == 0
	case variant.Double, variant.Float:
		f, _ := v.Float64Value()
		return f == 0
	case variant.Decimal:
		d, _ := v.DecimalValue()
		return d.IsZero()
	}
	return false
}

// SetNull clears the cell at column i.
func (r *Row) SetNull(i int) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetNull()
	return nil
}

// SetString stores s into column i as an owned copy.
func (r *Row) SetString(i int, s string) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetString(s)
	return nil
}

// SetInt64 stores an INT64 into column i.
func (r *Row) SetInt64(i int, v int64) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetInt64(v)
	return nil
}

// SetInt32 stores an INT32 into column i.
func (r *Row) SetInt32(i int, v int32) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetInt32(v)
	return nil
}

// SetFloat64 stores a DOUBLE into column i.
func (r *Row) SetFloat64(i int, v float64) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetFloat64(v)
	return nil
}

// SetDecimal stores a DECIMAL into column i.
func (r *Row) SetDecimal(i int, d decimal.Decimal) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetDecimal(d)
	return nil
}

// SetBytes stores a BYTES payload into column i as an owned copy.
func (r *Row) SetBytes(i int, b []byte) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetBytes(b)
	return nil
}

// SetUUID stores a UUID into column i.
func (r *Row) SetUUID(i int, u uuid.UUID) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetUUID(u)
	return nil
}

// SetDate stores a DATE (epoch seconds, midnight UTC) into column i.
func (r *Row) SetDate(i int, epochSec int64) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetDate(epochSec)
	return nil
}

// SetTime stores a TIME (epoch seconds) into column i.
func (r *Row) SetTime(i int, epochSec int64) error {
	c, err := r.Cell(i)
	if err != nil {
		return err
	}
	c.SetTime(epochSec)
	return nil
}

// Int64 reads column i as an int64, converting numerics and numeric
// strings.
func (r *Row) Int64(i int) (int64, error) {
	c, err := r.Cell(i)
	if err != nil {
		return 0, err
	}
	return c.Int64Value()
}

// Float64 reads column i as a float64.
func (r *Row) Float64(i int) (float64, error) {
	c, err := r.Cell(i)
	if err != nil {
		return 0, err
	}
	return c.Float64Value()
}

// String reads column i in its plain string form.
func (r *Row) String(i int) (string, error) {
	c, err := r.Cell(i)
	if err != nil {
		return "", err
	}
	return c.StringValue(), nil
}

// Decimal reads column i as a Decimal.
func (r *Row) Decimal(i int) (decimal.Decimal, error) {
	c, err := r.Cell(i)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return c.DecimalValue()
}

// Bytes reads column i as a BYTES payload.
func (r *Row) Bytes(i int) ([]byte, error) {
	c, err := r.Cell(i)
	if err != nil {
		return nil, err
	}
	return c.BytesValue()
}

// Equals reports whether two rows of equal schemas hold equal cells.
func (r *Row) Equals(o *Row) bool {
	if o == nil || len(r.cells) != len(o.cells) {
		return false
	}
	for i := range r.cells {
		if variant.Compare(&r.cells[i], &o.cells[i]) != 0 {
			return false
		}
	}
	return true
}

// Compare orders two rows cell by cell, first difference wins. A
// shorter row sorts before its extension.
func (r *Row) Compare(o *Row) int {
	n := len(r.cells)
	if len(o.cells) < n {
		n = len(o.cells)
	}
	for i := 0; i < n; i++ {
		if c := variant.Compare(&r.cells[i], &o.cells[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(r.cells) < len(o.cells):
		return -1
	case len(r.cells) > len(o.cells):
		return 1
	}
	return 0
}

// Copy returns a deep copy; every cell owns its payload.
func (r *Row) Copy() (*Row, error) {
	out, err := New(r.meta)
	if err != nil {
		return nil, err
	}
	out.rowid = r.rowid
	for i := range r.cells {
		out.cells[i].CopyFrom(&r.cells[i])
	}
	return out, nil
}

// Validate checks NOT NULL constraints.
func (r *Row) Validate() error {
	for i := range r.meta.Columns {
		if r.meta.Columns[i].NotNull && r.cells[i].IsNull() {
			return errors.Newf(errors.ErrorTypeMalformed, "column %q is NOT NULL", r.meta.Columns[i].Name)
		}
	}
	return nil
}

// Reset clears all cells back to Null and drops the rowid.
func (r *Row) Reset() {
	r.rowid = NoRowID
	for i := range r.cells {
		r.cells[i].SetNull()
	}
}

// FromPairs builds a row from alternating column name / value string
// pairs. Nil tokens become Null; "rowid" addresses the storage id.
func FromPairs(meta *Meta, pairs ...string) (*Row, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "pair count must be even, got %d", len(pairs))
	}
	r, err := New(meta)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(pairs); i += 2 {
		k, v := pairs[i], pairs[i+1]
		if strings.EqualFold(k, "rowid") {
			if isNilToken(v, meta) {
				continue
			}
			id, perr := variant.ParseInt64([]byte(v))
			if perr != nil {
				return nil, errors.Newf(errors.ErrorTypeMalformed, "invalid rowid %q", v)
			}
			r.rowid = id
			continue
		}
		col := meta.ColumnAt(k)
		if col < 0 {
			return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown column %q", k)
		}
		if isNilToken(v, meta) {
			r.cells[col].SetNull()
			continue
		}
		var tmp variant.Variant
		tmp.SetStringRef([]byte(v))
		if err := r.Set(col, &tmp); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Cast builds a row of the target schema from src, matching columns
// by name and converting cell types. Missing columns keep their
// defaults; failed conversions leave Null.
func Cast(src *Row, meta *Meta) (*Row, error) {
	dst, err := New(meta)
	if err != nil {
		return nil, err
	}
	if err := CastInto(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// CastInto fills an existing destination row from src, the bulk
// import path that avoids per-record allocation. When the schemas
// match column for column the cells copy directly.
func CastInto(src, dst *Row) error {
	if src == nil || dst == nil {
		return errors.New(errors.ErrorTypeInternal, "cast requires source and destination rows")
	}
	dst.rowid = NoRowID
	if src.meta.Equal(dst.meta) {
		for i := range dst.cells {
			dst.cells[i].CopyFrom(&src.cells[i])
		}
		return nil
	}
	for i := range dst.meta.Columns {
		srcCol := src.meta.ColumnAt(dst.meta.Columns[i].Name)
		if srcCol < 0 || srcCol >= len(src.cells) {
			dst.cells[i].SetNull()
			continue
		}
		sv := &src.cells[srcCol]
		if sv.IsNull() {
			dst.cells[i].SetNull()
			continue
		}
		if err := dst.Set(i, sv); err != nil {
			dst.cells[i].SetNull()
		}
	}
	return nil
}

