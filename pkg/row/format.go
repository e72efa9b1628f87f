package row

import "github.com/basaltdb/basalt/pkg/buffer"

// Formatter moves rows between memory and a serialized form. Encode
// leaves the output buffer flipped and ready to read; Decode consumes
// from the buffer's current position.
type Formatter interface {
	Encode(r *Row, out *buffer.Buffer) error
	Decode(in *buffer.Buffer, r *Row) error
}

// ensure grows an owned output buffer to at least n bytes. Wrapped
// and mapped buffers cannot grow; their puts report bounds errors.
func ensure(b *buffer.Buffer, n int) {
	if b.Capacity() < n {
		_ = b.Realloc(n)
	}
}
