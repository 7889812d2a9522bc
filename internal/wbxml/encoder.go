package wbxml

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/airsync/internal/tags"
)

// Encoder builds a WBXML document in memory.
//
// Methods return the encoder so requests read as a chain:
//
//	e := wbxml.NewDocument()
//	e.Start(tags.FolderFolderSync).Data(tags.FolderSyncKey, "0").End()
//	body, err := e.Finish()
//
// A start tag is held back until the next call reveals whether the
// element has content; an element closed straight away is written
// without the content flag. The first misuse is remembered and returned
// by EndDocument.
type Encoder struct {
	buf bytes.Buffer

	page       tags.Page
	pending    tags.Tag
	hasPending bool
	stack      []tags.Tag

	err error
}

// NewEncoder returns an encoder with an empty buffer. Call StartDocument
// before the first element.
func NewEncoder() *Encoder {
	return &Encoder{stack: make([]tags.Tag, 0, 16)}
}

// NewDocument returns an encoder with a UTF-8 header already written.
func NewDocument() *Encoder {
	return NewEncoder().StartDocument(CharsetUTF8)
}

// StartDocument writes the header: version, unknown public id, charset
// and an empty string table.
func (e *Encoder) StartDocument(cs Charset) *Encoder {
	if e.buf.Len() != 0 {
		e.fail("document already started")
		return e
	}
	e.buf.WriteByte(Version)
	e.writeMBInt(publicIDUnknown)
	e.writeMBInt(uint32(cs))
	e.writeMBInt(0)
	return e
}

// Start opens tag.
func (e *Encoder) Start(tag tags.Tag) *Encoder {
	if e.buf.Len() == 0 {
		e.fail("element %s before StartDocument", tag)
		return e
	}
	e.flush(true)
	e.pending = tag
	e.hasPending = true
	return e
}

// End closes the innermost open element.
func (e *Encoder) End() *Encoder {
	if e.hasPending {
		e.flush(false)
		return e
	}
	if len(e.stack) == 0 {
		e.fail("End with no open element")
		return e
	}
	e.stack = e.stack[:len(e.stack)-1]
	e.buf.WriteByte(tokenEnd)
	return e
}

// Text writes s as an inline string inside the innermost open element.
func (e *Encoder) Text(s string) *Encoder {
	if !e.hasPending && len(e.stack) == 0 {
		e.fail("text outside any element")
		return e
	}
	if strings.IndexByte(s, 0) >= 0 {
		e.fail("text contains NUL")
		return e
	}
	e.flush(true)
	e.buf.WriteByte(tokenStrI)
	e.buf.WriteString(s)
	e.buf.WriteByte(0)
	return e
}

// Data writes tag with text content s.
func (e *Encoder) Data(tag tags.Tag, s string) *Encoder {
	return e.Start(tag).Text(s).End()
}

// Empty writes tag with no content.
func (e *Encoder) Empty(tag tags.Tag) *Encoder {
	return e.Start(tag).End()
}

// EndDocument checks that every element was closed and reports the first
// error recorded while encoding.
func (e *Encoder) EndDocument() error {
	if e.err != nil {
		return e.err
	}
	if e.hasPending || len(e.stack) > 0 {
		open := len(e.stack)
		if e.hasPending {
			open++
		}
		return fmt.Errorf("wbxml: encode: %d element(s) left open", open)
	}
	return nil
}

// Bytes returns the encoded document so far.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Finish ends the document and returns its bytes.
func (e *Encoder) Finish() ([]byte, error) {
	if err := e.EndDocument(); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

func (e *Encoder) flush(content bool) {
	if !e.hasPending {
		return
	}
	tag := e.pending
	e.hasPending = false

	if p := tag.Page(); p != e.page {
		e.buf.WriteByte(tokenSwitchPage)
		e.buf.WriteByte(byte(p))
		e.page = p
	}
	b := tag.Code()
	if content {
		b |= flagContent
		e.stack = append(e.stack, tag)
	}
	e.buf.WriteByte(b)
}

func (e *Encoder) writeMBInt(v uint32) {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
	}
	e.buf.Write(tmp[i:])
}

func (e *Encoder) fail(format string, args ...any) {
	if e.err == nil {
		e.err = errors.New("wbxml: encode: " + fmt.Sprintf(format, args...))
	}
}
