// Package stream opens the on-disk side-information and residual streams,
// optionally zstd compressed.
package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

type writer struct {
	*bufio.Writer
	closers []io.Closer
}

func (w *writer) Close() error {
	err := w.Flush()
	for _, c := range w.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewWriter buffers w and, when compress is set, wraps it in a zstd frame.
// Close flushes both layers but does not close w.
func NewWriter(w io.Writer, compress bool) (io.WriteCloser, error) {
	out := &writer{}
	if compress {
		enc, err := zstd.NewWriter(w,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		w = enc
		out.closers = append(out.closers, enc)
	}
	out.Writer = bufio.NewWriter(w)
	return out, nil
}

// Create makes the file at path and returns a writer onto it.
func Create(path string, compress bool) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}
	w, err := NewWriter(f, compress)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.(*writer).closers = append(w.(*writer).closers, f)
	return w, nil
}

type reader struct {
	io.Reader
	close func() error
}

func (r *reader) Close() error { return r.close() }

// NewReader returns a reader over r, transparently decompressing a zstd stream.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("sniff stream: %w", err)
	}
	if !bytes.Equal(head, zstdMagic) {
		return &reader{Reader: br, close: func() error { return nil }}, nil
	}
	dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &reader{Reader: dec, close: func() error { dec.Close(); return nil }}, nil
}

// Open opens the stream file at path.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	inner := r.(*reader).close
	r.(*reader).close = func() error {
		inner()
		return f.Close()
	}
	return r, nil
}
