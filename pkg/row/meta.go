// Package row implements schema-bound records: a Meta describes the
// columns, a Row holds one cell per column, and formatters move rows
// between memory and their binary or delimited-text representations.
package row

import (
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/variant"
)

// MaxColumns caps the number of columns a schema may declare.
const MaxColumns = 1024

// Column describes one field of a schema.
type Column struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Width     int    `json:"width,omitempty"`     // payload byte budget for var-len types
	Precision int    `json:"precision,omitempty"` // decimal scale
	NotNull   bool   `json:"notNull,omitempty"`
	Default   string `json:"default,omitempty"`
	Comment   string `json:"comment,omitempty"`

	typ variant.Type
}

// VariantType returns the resolved runtime type of the column.
func (c *Column) VariantType() variant.Type { return c.typ }

// Meta is a named, ordered column list plus the text-format options
// used when rows of this schema are read from delimited files.
type Meta struct {
	Version   float64  `json:"version"`
	Name      string   `json:"name"`
	Delimiter string   `json:"delimiter,omitempty"`
	Quote     string   `json:"quote,omitempty"`
	NilToken  string   `json:"nilToken,omitempty"`
	Columns   []Column `json:"columns"`

	index map[string]int
}

// NewMeta creates an empty schema with the given name.
func NewMeta(name string) *Meta {
	return &Meta{Version: 1.0, Name: name, index: map[string]int{}}
}

// AddColumn appends a column definition. The type name must be one of
// the variant type names.
func (m *Meta) AddColumn(c Column) error {
	if len(m.Columns) >= MaxColumns {
		return errors.Newf(errors.ErrorTypeConfig, "too many columns (max %d)", MaxColumns)
	}
	t, ok := variant.ParseType(strings.ToUpper(c.Type))
	if !ok {
		return errors.Newf(errors.ErrorTypeConfig, "unknown column type %q", c.Type)
	}
	c.typ = t
	if m.index == nil {
		m.index = map[string]int{}
	}
	key := strings.ToLower(c.Name)
	if _, dup := m.index[key]; dup {
		return errors.Newf(errors.ErrorTypeConfig, "duplicate column %q", c.Name)
	}
	m.index[key] = len(m.Columns)
	m.Columns = append(m.Columns, c)
	return nil
}

// ColumnAt returns the index of the named column, or -1. Lookup is
// case-insensitive.
func (m *Meta) ColumnAt(name string) int {
	if i, ok := m.index[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// Validate resolves column types and rebuilds the name index. Call it
// after unmarshaling.
func (m *Meta) Validate() error {
	if len(m.Columns) == 0 {
		return errors.New(errors.ErrorTypeConfig, "schema has no columns")
	}
	if len(m.Columns) > MaxColumns {
		return errors.Newf(errors.ErrorTypeConfig, "too many columns (max %d)", MaxColumns)
	}
	m.index = make(map[string]int, len(m.Columns))
	for i := range m.Columns {
		c := &m.Columns[i]
		if c.Name == "" {
			return errors.Newf(errors.ErrorTypeConfig, "column %d has no name", i)
		}
		t, ok := variant.ParseType(strings.ToUpper(c.Type))
		if !ok {
			return errors.Newf(errors.ErrorTypeConfig, "column %q: unknown type %q", c.Name, c.Type)
		}
		c.typ = t
		key := strings.ToLower(c.Name)
		if _, dup := m.index[key]; dup {
			return errors.Newf(errors.ErrorTypeConfig, "duplicate column %q", c.Name)
		}
		m.index[key] = i
	}
	if len(m.Delimiter) > 1 || len(m.Quote) > 1 {
		return errors.New(errors.ErrorTypeConfig, "delimiter and quote must be single characters")
	}
	return nil
}

// Equal reports whether two schemas declare the same columns in the
// same order with the same types.
func (m *Meta) Equal(o *Meta) bool {
	if o == nil || len(m.Columns) != len(o.Columns) {
		return false
	}
	for i := range m.Columns {
		a, b := &m.Columns[i], &o.Columns[i]
		if !strings.EqualFold(a.Name, b.Name) || a.typ != b.typ {
			return false
		}
	}
	return true
}

// MarshalJSON renders the schema document.
func (m *Meta) MarshalJSON() ([]byte, error) {
	type alias Meta
	return json.Marshal((*alias)(m))
}

// ParseMeta decodes a schema document and validates it.
func ParseMeta(data []byte) (*Meta, error) {
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMalformed, "invalid schema document")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// OpenMeta reads a schema document from a file.
func OpenMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "read schema %s", path)
	}
	return ParseMeta(data)
}

// WriteFile saves the schema document to a file.
func (m *Meta) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "marshal schema")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeIO, "write schema %s", path)
	}
	return nil
}

// ParseColumnSpec parses a compact column list of the form
// "id INT64 NOT NULL, name STRING(50), price DECIMAL(12,2)".
func ParseColumnSpec(name, spec string) (*Meta, error) {
	m := NewMeta(name)
	for _, part := range splitTopLevel(spec) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) < 2 {
			return nil, errors.Newf(errors.ErrorTypeConfig, "bad column spec %q", part)
		}
		c := Column{Name: fields[0]}
		typ := fields[1]
		if i := strings.IndexByte(typ, '('); i >= 0 {
			args := strings.TrimSuffix(typ[i+1:], ")")
			typ = typ[:i]
			parts := strings.Split(args, ",")
			w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return nil, errors.Newf(errors.ErrorTypeConfig, "bad width in %q", part)
			}
			c.Width = w
			if len(parts) > 1 {
				p, err := strconv.Atoi(strings.TrimSpace(parts[1]))
				if err != nil {
					return nil, errors.Newf(errors.ErrorTypeConfig, "bad precision in %q", part)
				}
				c.Precision = p
			}
		}
		c.Type = strings.ToUpper(typ)
		rest := strings.ToUpper(strings.Join(fields[2:], " "))
		if strings.Contains(rest, "NOT NULL") {
			c.NotNull = true
		}
		if err := m.AddColumn(c); err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// splitTopLevel splits on commas that are not inside parentheses, so
// "price DECIMAL(12,2)" stays one piece.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
