package buffer

import (
	"fmt"
	"strings"
)

// DumpHex renders length bytes starting at offset as an
// address/hex/ascii listing, width bytes per line.
func DumpHex(in []byte, offset, length, width int) string {
	if width <= 0 {
		width = 16
	}
	var sb strings.Builder
	for line := 0; line < length; line += width {
		fmt.Fprintf(&sb, "%08d : ", line)
		end := line + width
		for i := line; i < end; i++ {
			if i < length {
				fmt.Fprintf(&sb, "%02x ", in[offset+i])
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString(" : ")
		for i := line; i < end && i < length; i++ {
			c := in[offset+i]
			if c >= 32 && c <= 126 {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
