// Package compression provides a small codec registry over the
// compression formats basalt files may be stored in. Codecs are
// selected explicitly by algorithm or inferred from a file extension.
package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/basaltdb/basalt/pkg/errors"
)

// Algorithm identifies a compression format.
type Algorithm string

const (
	None   Algorithm = "none"
	Gzip   Algorithm = "gzip"
	Snappy Algorithm = "snappy"
	S2     Algorithm = "s2"
	Zstd   Algorithm = "zstd"
	LZ4    Algorithm = "lz4"
)

// extensions maps file suffixes to algorithms for transparent codec
// selection.
var extensions = map[string]Algorithm{
	".gz":  Gzip,
	".sz":  Snappy,
	".s2":  S2,
	".zst": Zstd,
	".lz4": LZ4,
}

// ByExtension returns the algorithm implied by path's suffix, or None.
func ByExtension(path string) Algorithm {
	for ext, alg := range extensions {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return alg
		}
	}
	return None
}

// Codec compresses and decompresses byte blocks and streams.
type Codec interface {
	Algorithm() Algorithm
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// Reader wraps r with a decompressing reader.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w with a compressing writer. Closing the returned
	// writer flushes the codec but leaves w open.
	Writer(w io.Writer) (io.WriteCloser, error)
}

// New returns the codec for alg.
func New(alg Algorithm) (Codec, error) {
	switch alg {
	case None:
		return noneCodec{}, nil
	case Gzip:
		return gzipCodec{}, nil
	case Snappy:
		return snappyCodec{}, nil
	case S2:
		return s2Codec{}, nil
	case Zstd:
		return zstdCodec{}, nil
	case LZ4:
		return lz4Codec{}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown compression algorithm %q", alg)
	}
}

// ForPath returns the codec implied by path's extension.
func ForPath(path string) (Codec, error) {
	return New(ByExtension(path))
}

// compressVia runs data through a streaming writer codec.
func compressVia(c Codec, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressVia runs data through a streaming reader codec.
func decompressVia(c Codec, data []byte) ([]byte, error) {
	r, err := c.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type noneCodec struct{}

func (noneCodec) Algorithm() Algorithm                  { return None }
func (noneCodec) Compress(data []byte) ([]byte, error)  { return data, nil }
func (noneCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noneCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}
func (noneCodec) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type gzipCodec struct{}

func (gzipCodec) Algorithm() Algorithm { return Gzip }
func (c gzipCodec) Compress(data []byte) ([]byte, error) {
	return compressVia(c, data)
}
func (c gzipCodec) Decompress(data []byte) ([]byte, error) {
	return decompressVia(c, data)
}
func (gzipCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}
func (gzipCodec) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

type snappyCodec struct{}

func (snappyCodec) Algorithm() Algorithm { return Snappy }
func (snappyCodec) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}
func (snappyCodec) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}
func (snappyCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(snappy.NewReader(r)), nil
}
func (snappyCodec) Writer(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

type s2Codec struct{}

func (s2Codec) Algorithm() Algorithm { return S2 }
func (s2Codec) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}
func (s2Codec) Decompress(data []byte) ([]byte, error) {
	return s2.Decode(nil, data)
}
func (s2Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}
func (s2Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(w), nil
}

type zstdCodec struct{}

func (zstdCodec) Algorithm() Algorithm { return Zstd }
func (zstdCodec) Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
func (zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
func (zstdCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}
func (zstdCodec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

type lz4Codec struct{}

func (lz4Codec) Algorithm() Algorithm { return LZ4 }
func (c lz4Codec) Compress(data []byte) ([]byte, error) {
	return compressVia(c, data)
}
func (c lz4Codec) Decompress(data []byte) ([]byte, error) {
	return decompressVia(c, data)
}
func (lz4Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
func (lz4Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}
