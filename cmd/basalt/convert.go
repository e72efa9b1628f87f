package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basaltdb/basalt/pkg/buffer"
	"github.com/basaltdb/basalt/pkg/compression"
	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/logger"
	"github.com/basaltdb/basalt/pkg/row"
)

func newConvertCmd() *cobra.Command {
	var (
		schemaFile string
		inFormat   string
		outFormat  string
	)
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert row data between text and binary formats",
		Long: `Convert reads rows from the input file and rewrites them to the output
file in another format. Formats are tsv, csv, or bin. Files ending in
.zst or .lz4 are decompressed and compressed transparently.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := row.OpenMeta(schemaFile)
			if err != nil {
				return err
			}
			return convert(meta, args[0], inFormat, args[1], outFormat)
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "Path to the JSON schema file (required)")
	cmd.Flags().StringVar(&inFormat, "in", "tsv", "Input format: tsv, csv, or bin")
	cmd.Flags().StringVar(&outFormat, "out", "bin", "Output format: tsv, csv, or bin")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newFormatter(meta *row.Meta, format string) (row.Formatter, error) {
	switch format {
	case "tsv":
		return row.NewTextFormatter(meta, row.TSVOptions())
	case "csv":
		return row.NewTextFormatter(meta, row.CSVOptions())
	case "bin":
		return row.NewBinaryFormatter(meta)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown format %q", format)
	}
}

// readAll loads a file into memory, decompressing by extension.
func readAll(path string) ([]byte, error) {
	codec, err := compression.ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "open %s", path)
	}
	defer f.Close()

	r, err := codec.Reader(f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "decompress %s", path)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "read %s", path)
	}
	return data, nil
}

// writeAll stores data, compressing by extension.
func writeAll(path string, data []byte) error {
	codec, err := compression.ForPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeIO, "create %s", path)
	}
	defer f.Close()

	w, err := codec.Writer(f)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeIO, "compress %s", path)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.Wrapf(err, errors.ErrorTypeIO, "write %s", path)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeIO, "flush %s", path)
	}
	return nil
}

func convert(meta *row.Meta, inPath, inFormat, outPath, outFormat string) error {
	dec, err := newFormatter(meta, inFormat)
	if err != nil {
		return err
	}
	enc, err := newFormatter(meta, outFormat)
	if err != nil {
		return err
	}

	data, err := readAll(inPath)
	if err != nil {
		return err
	}

	in := buffer.Wrap(data)
	out := buffer.Alloc(len(data) + 4096)
	defer out.Free()

	r, err := row.New(meta)
	if err != nil {
		return err
	}
	defer r.Release()
	rec := buffer.Alloc(4096)
	defer rec.Free()

	n := 0
	for in.Remaining() > 0 {
		if err := dec.Decode(in, r); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeMalformed, "decode record %d", n)
		}
		if err := enc.Encode(r, rec); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeMalformed, "encode record %d", n)
		}
		b := rec.Bytes()
		if out.Remaining() < len(b) {
			if err := out.Realloc(out.Capacity()*2 + len(b)); err != nil {
				return err
			}
		}
		out.PutBytes(b)
		n++
	}

	out.Flip()
	if err := writeAll(outPath, out.Bytes()); err != nil {
		return err
	}
	logger.Info("converted rows",
		zap.Int("rows", n),
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.String("from", inFormat),
		zap.String("to", outFormat))
	return nil
}
