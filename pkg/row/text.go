package row

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/basaltdb/basalt/pkg/buffer"
	"github.com/basaltdb/basalt/pkg/decimal"
	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/variant"
)

// TextOptions configure the delimited-text formatter. A zero Quote
// selects backslash-escaped (TSV) mode; a non-zero Quote selects
// CSV-style quoting.
type TextOptions struct {
	Delimiter byte
	Quote     byte
	NilToken  string
}

// CSVOptions are the comma/quote defaults.
func CSVOptions() TextOptions { return TextOptions{Delimiter: ',', Quote: '"', NilToken: "NULL"} }

// TSVOptions are the tab-separated defaults.
func TSVOptions() TextOptions { return TextOptions{Delimiter: '\t', NilToken: `\N`} }

// TextFormatter reads and writes rows as delimited text records, one
// row per line.
type TextFormatter struct {
	meta *Meta
	opts TextOptions

	// parse cache for date/time columns, which repeat heavily in
	// bulk loads
	dates map[string]int64
}

// NewTextFormatter creates a text formatter. Schema-level text
// options override zero-valued fields of opts.
func NewTextFormatter(meta *Meta, opts TextOptions) (*TextFormatter, error) {
	if meta == nil || len(meta.Columns) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "text formatter requires a schema")
	}
	if opts.Delimiter == 0 && meta.Delimiter != "" {
		opts.Delimiter = meta.Delimiter[0]
	}
	if opts.Quote == 0 && meta.Quote != "" {
		opts.Quote = meta.Quote[0]
	}
	if opts.NilToken == "" && meta.NilToken != "" {
		opts.NilToken = meta.NilToken
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = '\t'
	}
	if opts.NilToken == "" {
		opts.NilToken = `\N`
	}
	return &TextFormatter{meta: meta, opts: opts}, nil
}

// Encode renders the row as one text record ending in a newline.
func (f *TextFormatter) Encode(r *Row, out *buffer.Buffer) error {
	if r == nil || out == nil {
		return errors.New(errors.ErrorTypeInternal, "encode requires a row and buffer")
	}
	out.Clear()
	var line []byte
	for i := range f.meta.Columns {
		if i >= r.Len() {
			break
		}
		if i > 0 {
			line = append(line, f.opts.Delimiter)
		}
		cell := &r.cells[i]
		if cell.IsNull() {
			line = append(line, f.opts.NilToken...)
			continue
		}
		line = f.appendField(line, &f.meta.Columns[i], cell)
	}
	line = append(line, '\n')
	ensure(out, len(line))
	if err := out.PutBytes(line); err != nil {
		return err
	}
	out.Flip()
	return nil
}

func (f *TextFormatter) appendField(line []byte, c *Column, cell *variant.Variant) []byte {
	switch c.typ {
	case variant.Date:
		t := epochOrInt(cell)
		y, mo, d := CivilFromDays(t / 86400)
		return f.appendEscaped(line, []byte(fmt.Sprintf("%04d-%02d-%02d", y, mo, d)))
	case variant.Time:
		t := epochOrInt(cell)
		y, mo, d := CivilFromDays(t / 86400)
		sec := t % 86400
		if sec < 0 {
			sec += 86400
		}
		s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", y, mo, d, sec/3600, sec%3600/60, sec%60)
		return f.appendEscaped(line, []byte(s))
	case variant.String:
		return f.appendEscaped(line, []byte(cell.StringValue()))
	case variant.Double, variant.Float:
		v, _ := cell.Float64Value()
		return f.appendEscaped(line, strconv.AppendFloat(nil, v, 'g', 17, 64))
	case variant.Int8, variant.Uint8, variant.Int16, variant.Uint16,
		variant.Int32, variant.Uint32, variant.Int64:
		n, _ := cell.Int64Value()
		return f.appendEscaped(line, strconv.AppendInt(nil, n, 10))
	case variant.Decimal:
		d, err := cell.ToDecimal()
		if err != nil {
			return line
		}
		return f.appendEscaped(line, []byte(d.String()))
	case variant.Bytes, variant.Blob, variant.Object:
		p := cell.Payload()
		if len(p) == 0 {
			return line
		}
		const hexdigits = "0123456789abcdef"
		hx := make([]byte, 0, len(p)*2)
		for _, b := range p {
			hx = append(hx, hexdigits[b>>4], hexdigits[b&0x0F])
		}
		return f.appendEscaped(line, hx)
	default:
		if s := cell.StringValue(); s != "" {
			return f.appendEscaped(line, []byte(s))
		}
		return line
	}
}

// appendEscaped writes one field body. Backslash mode escapes the
// control characters and the delimiter; quote mode wraps the field
// when it contains the quote, the delimiter or a newline.
func (f *TextFormatter) appendEscaped(line, field []byte) []byte {
	if f.opts.Quote == 0 {
		for _, ch := range field {
			switch ch {
			case '\\':
				line = append(line, '\\', '\\')
			case '\t':
				line = append(line, '\\', 't')
			case '\n':
				line = append(line, '\\', 'n')
			case '\r':
				line = append(line, '\\', 'r')
			case f.opts.Delimiter:
				line = append(line, '\\', f.opts.Delimiter)
			default:
				line = append(line, ch)
			}
		}
		return line
	}
	needsQuote := false
	for _, ch := range field {
		if ch == f.opts.Quote || ch == '\n' || ch == '\r' || ch == f.opts.Delimiter {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return append(line, field...)
	}
	line = append(line, f.opts.Quote)
	for _, ch := range field {
		if ch == f.opts.Quote {
			line = append(line, f.opts.Quote, f.opts.Quote)
		} else {
			line = append(line, ch)
		}
	}
	return append(line, f.opts.Quote)
}

// Decode parses one record from the buffer's current position and
// advances past it. Fields equal to the nil token become Null; parse
// failures on typed columns also leave Null.
func (f *TextFormatter) Decode(in *buffer.Buffer, r *Row) error {
	if in == nil || r == nil {
		return errors.New(errors.ErrorTypeInternal, "decode requires a buffer and row")
	}
	data := in.Bytes()
	if len(data) == 0 {
		return errors.New(errors.ErrorTypeMalformed, "nothing to parse")
	}
	fields, consumed := f.split(data)
	in.Skip(consumed)

	for i := range f.meta.Columns {
		if i >= r.Len() {
			break
		}
		cell := &r.cells[i]
		var fv []byte
		if i < len(fields) {
			fv = fields[i]
		}
		if fv == nil {
			cell.SetNull()
			continue
		}
		c := &f.meta.Columns[i]
		switch c.typ {
		case variant.String:
			cell.SetString(string(fv))
		case variant.Int64, variant.Int32, variant.Int16, variant.Int8,
			variant.Uint32, variant.Uint16, variant.Uint8:
			n, err := variant.ParseInt64(fv)
			if err != nil {
				cell.SetNull()
				continue
			}
			setIntAs(cell, c.typ, n)
		case variant.Double, variant.Float:
			v, err := variant.ParseFloat64(fv)
			if err != nil {
				cell.SetNull()
				continue
			}
			setFloatAs(cell, c.typ, v)
		case variant.Date, variant.Time:
			t, err := f.parseDateTime(fv)
			if err != nil {
				cell.SetNull()
				continue
			}
			setEpochAs(cell, c.typ, t)
		case variant.Decimal:
			cell.SetDecimal(decimal.FromString(string(fv), c.Precision))
		default:
			// BYTES, UUID, IPV6 and the rest go through the cast path.
			var tmp variant.Variant
			tmp.SetStringRef(fv)
			if err := r.Set(i, &tmp); err != nil {
				cell.SetNull()
			}
		}
	}
	return nil
}

const maxDateCache = 4096

func (f *TextFormatter) parseDateTime(fv []byte) (int64, error) {
	if t, ok := f.dates[string(fv)]; ok {
		return t, nil
	}
	t, err := ParseDateTime(string(fv))
	if err != nil {
		return 0, err
	}
	if f.dates == nil {
		f.dates = make(map[string]int64)
	}
	if len(f.dates) < maxDateCache {
		f.dates[string(fv)] = t
	}
	return t, nil
}

// split cuts one record into fields. A nil field slice marks the nil
// token. Returns the number of bytes consumed including the record
// terminator.
func (f *TextFormatter) split(data []byte) ([][]byte, int) {
	if f.opts.Quote == 0 && bytes.IndexByte(data, '\\') < 0 {
		return f.splitFast(data)
	}
	return f.splitQuoted(data)
}

func (f *TextFormatter) splitFast(data []byte) ([][]byte, int) {
	var fields [][]byte
	nil0 := []byte(f.opts.NilToken)
	p := 0
	for p < len(data) {
		rest := data[p:]
		nl := bytes.IndexByte(rest, '\n')
		dl := bytes.IndexByte(rest, f.opts.Delimiter)
		stop := len(rest)
		isNewline := false
		if nl >= 0 && (dl < 0 || nl < dl) {
			stop = nl
			isNewline = true
		} else if dl >= 0 {
			stop = dl
		}
		field := rest[:stop]
		if bytes.Equal(field, nil0) {
			fields = append(fields, nil)
		} else {
			out := make([]byte, len(field))
			copy(out, field)
			fields = append(fields, out)
		}
		p += stop
		if p < len(data) {
			p++ // consume delimiter or newline
		}
		if isNewline {
			break
		}
	}
	return fields, p
}

func (f *TextFormatter) splitQuoted(data []byte) ([][]byte, int) {
	var fields [][]byte
	nil0 := []byte(f.opts.NilToken)
	var sb []byte
	inQuote := false
	quotedField := false

	finalize := func() {
		if !quotedField && bytes.Equal(sb, nil0) {
			fields = append(fields, nil)
		} else {
			out := make([]byte, len(sb))
			copy(out, sb)
			fields = append(fields, out)
		}
		sb = sb[:0]
		quotedField = false
	}

	i := 0
	for i < len(data) {
		ch := data[i]
		var next byte
		if i+1 < len(data) {
			next = data[i+1]
		}
		switch {
		case !inQuote && (ch == '\n' || ch == '\r'):
			finalize()
			if ch == '\r' && next == '\n' {
				i += 2
			} else {
				i++
			}
			return fields, i
		case inQuote && ch == f.opts.Quote && next == f.opts.Quote:
			sb = append(sb, ch)
			i += 2
		case inQuote && ch == f.opts.Quote:
			inQuote = false
			i++
		case f.opts.Quote != 0 && ch == f.opts.Quote:
			inQuote = true
			quotedField = true
			i++
		case inQuote:
			sb = append(sb, ch)
			i++
		case ch == '\\':
			var esc byte
			switch next {
			case f.opts.Delimiter:
				esc = f.opts.Delimiter
			case '\\':
				esc = '\\'
			case 'n':
				esc = '\n'
			case 'r':
				esc = '\r'
			case 't':
				esc = '\t'
			}
			if esc != 0 {
				sb = append(sb, esc)
				i += 2
			} else {
				sb = append(sb, ch)
				i++
			}
		case ch == f.opts.Delimiter:
			finalize()
			i++
		default:
			sb = append(sb, ch)
			i++
		}
	}
	finalize()
	return fields, i
}

func epochOrInt(cell *variant.Variant) int64 {
	if t, err := cell.EpochValue(); err == nil {
		return t
	}
	n, _ := cell.Int64Value()
	return n
}
