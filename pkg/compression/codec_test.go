package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var algorithms = []Algorithm{None, Gzip, Snappy, S2, Zstd, LZ4}

func sample() []byte {
	var buf bytes.Buffer
	for i := 0; i < 200; i++ {
		buf.WriteString("1\talice\t2024-01-15\t99.95\n")
	}
	return buf.Bytes()
}

func TestBlockRoundTrip(t *testing.T) {
	data := sample()
	for _, alg := range algorithms {
		c, err := New(alg)
		require.NoError(t, err, string(alg))

		packed, err := c.Compress(data)
		require.NoError(t, err, string(alg))
		got, err := c.Decompress(packed)
		require.NoError(t, err, string(alg))
		assert.Equal(t, data, got, string(alg))

		if alg != None {
			assert.Less(t, len(packed), len(data), string(alg))
		}
	}
}

func TestStreamRoundTrip(t *testing.T) {
	data := sample()
	for _, alg := range algorithms {
		c, err := New(alg)
		require.NoError(t, err, string(alg))

		var packed bytes.Buffer
		w, err := c.Writer(&packed)
		require.NoError(t, err, string(alg))
		_, err = w.Write(data)
		require.NoError(t, err, string(alg))
		require.NoError(t, w.Close(), string(alg))

		r, err := c.Reader(bytes.NewReader(packed.Bytes()))
		require.NoError(t, err, string(alg))
		got, err := io.ReadAll(r)
		require.NoError(t, err, string(alg))
		require.NoError(t, r.Close(), string(alg))
		assert.Equal(t, data, got, string(alg))
	}
}

func TestByExtension(t *testing.T) {
	assert.Equal(t, Zstd, ByExtension("rows.bin.zst"))
	assert.Equal(t, LZ4, ByExtension("rows.tsv.lz4"))
	assert.Equal(t, Gzip, ByExtension("rows.csv.gz"))
	assert.Equal(t, S2, ByExtension("rows.s2"))
	assert.Equal(t, None, ByExtension("rows.tsv"))
	assert.Equal(t, None, ByExtension(".gz"))
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := New(Algorithm("brotli"))
	assert.Error(t, err)
}
