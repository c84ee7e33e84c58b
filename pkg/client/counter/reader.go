// Package counter measures the size of HTTP bodies.
package counter

import (
	"errors"
	"io"
)

// OnClose is called once the body is closed, err is the first read error other than io.EOF, or the close error.
type OnClose func(bytes int64, err error)

// ReadCloser counts bytes read from the wrapped body.
type ReadCloser struct {
	wrapped io.ReadCloser
	onClose OnClose
	bytes   int64
	readErr error
	closed  bool
}

func NewReadCloser(wrapped io.ReadCloser, onClose OnClose) *ReadCloser {
	return &ReadCloser{wrapped: wrapped, onClose: onClose}
}

func (r *ReadCloser) Bytes() int64 {
	return r.bytes
}

func (r *ReadCloser) Read(p []byte) (int, error) {
	n, err := r.wrapped.Read(p)
	r.bytes += int64(n)
	if err != nil && r.readErr == nil && !errors.Is(err, io.EOF) {
		r.readErr = err
	}
	return n, err
}

func (r *ReadCloser) Close() error {
	err := r.wrapped.Close()
	if r.closed {
		return err
	}
	r.closed = true
	if r.onClose != nil {
		if r.readErr != nil {
			r.onClose(r.bytes, r.readErr)
		} else {
			r.onClose(r.bytes, err)
		}
	}
	return err
}
