// Package codec provides compression for partition logs.
//
// Appends to a partition write one complete compressed frame each. Both gzip
// members and zstd frames decode as a single stream when concatenated, so a
// log can grow without rewriting earlier frames.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Name returns the codec name used in configuration and manifests.
	Name() string
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "none":
		return None{}, nil
	case "gzip", "gz":
		return Gzip{}, nil
	case "zstd", "zst":
		return Zstd{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

// Compress encodes data as one frame.
func Compress(c Codec, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing compressor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes every frame in data.
func Decompress(c Codec, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r, err := c.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}

// None stores data uncompressed.
type None struct{}

// Compile-time check that None implements Codec.
var _ Codec = None{}

func (None) Name() string { return "none" }

func (None) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (None) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (None) Extension() string { return "" }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Gzip implements gzip compression.
type Gzip struct{}

// Compile-time check that Gzip implements Codec.
var _ Codec = Gzip{}

func (Gzip) Name() string { return "gzip" }

// Reader wraps r to decompress gzip data. Concatenated members are read as
// one stream.
func (Gzip) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (Gzip) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (Gzip) Extension() string { return "gz" }

// Zstd implements zstd compression.
type Zstd struct{}

// Compile-time check that Zstd implements Codec.
var _ Codec = Zstd{}

func (Zstd) Name() string { return "zstd" }

// Reader wraps r to decompress zstd data. Concatenated frames are read as
// one stream.
func (Zstd) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

func (Zstd) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (Zstd) Extension() string { return "zst" }
