package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/roach88/airsync/internal/easerr"
)

// Response is an open command response. Close must be called; it also
// releases the request's timeout.
type Response struct {
	Op         string
	StatusCode int
	Header     http.Header

	resp   *http.Response
	cancel func()
}

// OK reports whether the server answered 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Err classifies a non-200 status; it is nil for 200.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return easerr.FromHTTPStatus(r.Op, r.StatusCode)
}

// ContentLength returns the declared body length, or -1.
func (r *Response) ContentLength() int64 {
	return r.resp.ContentLength
}

// Chunked reports whether the body uses chunked transfer encoding.
func (r *Response) Chunked() bool {
	return slices.Contains(r.resp.TransferEncoding, "chunked")
}

// Stream returns the body limited to its Content-Length. Bodies without a
// length are refused with easerr.CodeUnsupportedFraming.
func (r *Response) Stream() (io.Reader, int64, error) {
	if r.Chunked() {
		return nil, 0, easerr.UnsupportedFraming(r.Op, "chunked transfer encoding")
	}
	n := r.resp.ContentLength
	if n < 0 {
		return nil, 0, easerr.UnsupportedFraming(r.Op, "response without Content-Length")
	}
	return io.LimitReader(r.resp.Body, n), n, nil
}

// ReadBody reads exactly Content-Length bytes. A body that ends early is
// transient I/O, not a short document.
func (r *Response) ReadBody() ([]byte, error) {
	body, n, err := r.Stream()
	if err != nil {
		return nil, err
	}
	buf, err := readExactly(body, n)
	if err != nil {
		return nil, easerr.Transient(r.Op, err)
	}
	return buf, nil
}

// Close releases the body and the request timeout. An unread body is not
// drained, so its connection is dropped instead of reused.
func (r *Response) Close() error {
	err := r.resp.Body.Close()
	r.cancel()
	return err
}

// maxPrealloc caps the buffer reserved up front, so a bogus
// Content-Length cannot force a large allocation before any byte arrives.
const maxPrealloc = 64 << 10

// readExactly accumulates partial reads until n bytes have arrived.
func readExactly(r io.Reader, n int64) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, min(n, maxPrealloc)))
	got, err := io.CopyN(buf, r, n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("body ended after %d of %d bytes: %w", got, n, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
