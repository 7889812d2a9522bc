package wbxml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/text/encoding"

	"github.com/roach88/airsync/internal/tags"
)

// EventKind distinguishes decoded events.
type EventKind int

const (
	// EOF marks a clean end of document: no open elements remain.
	EOF EventKind = iota
	// StartElement opens Tag.
	StartElement
	// EndElement closes Tag.
	EndElement
	// Text carries character data of the innermost open element.
	Text
)

func (k EventKind) String() string {
	switch k {
	case EOF:
		return "eof"
	case StartElement:
		return "start"
	case EndElement:
		return "end"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one decoded token.
type Event struct {
	Kind EventKind
	Tag  tags.Tag
	Text string
}

// Decoder streams events out of a WBXML document.
//
// The active code page is decoder state: a SWITCH_PAGE token changes it
// for every following tag until the next switch. Tags without the content
// flag produce a StartElement followed, on the next call, by a synthesized
// EndElement that consumes no input.
type Decoder struct {
	r   *bufio.Reader
	off int64

	version byte
	charset Charset
	text    *encoding.Decoder

	page      tags.Page
	stack     []tags.Tag
	noContent bool
	peeked    *Event
}

// Open reads the document header from r and returns a decoder positioned
// at the first token.
func Open(r io.Reader) (*Decoder, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := &Decoder{r: br, stack: make([]tags.Tag, 0, 16)}

	v, err := d.readByte()
	if err != nil {
		return nil, err
	}
	d.version = v

	if _, err := d.readMBInt(); err != nil { // public identifier
		return nil, err
	}
	cs, err := d.readMBInt()
	if err != nil {
		return nil, err
	}
	d.charset = Charset(cs)
	d.text = decoderFor(d.charset)

	tableLen, err := d.readMBInt()
	if err != nil {
		return nil, err
	}
	// EAS never references the string table; skip it.
	if n, err := d.r.Discard(int(tableLen)); err != nil {
		d.off += int64(n)
		return nil, d.truncated("string table of %d bytes", tableLen)
	}
	d.off += int64(tableLen)

	return d, nil
}

// Version returns the header version byte.
func (d *Decoder) Version() byte { return d.version }

// Charset returns the header character set.
func (d *Decoder) Charset() Charset { return d.charset }

// Depth returns the number of open elements, including one whose
// synthesized end has not been returned yet.
func (d *Decoder) Depth() int { return len(d.stack) }

// Next returns the next event.
func (d *Decoder) Next() (Event, error) {
	if d.peeked != nil {
		ev := *d.peeked
		d.peeked = nil
		return ev, nil
	}
	return d.next()
}

// Peek returns the next event without consuming it. Only one event of
// lookahead is kept.
func (d *Decoder) Peek() (Event, error) {
	if d.peeked != nil {
		return *d.peeked, nil
	}
	ev, err := d.next()
	if err != nil {
		return Event{}, err
	}
	d.peeked = &ev
	return ev, nil
}

// Unread pushes ev back so the next call to Next returns it again. ev must
// be the event most recently returned and nothing may be pending.
func (d *Decoder) Unread(ev Event) error {
	if d.peeked != nil {
		return errors.New("wbxml: Unread with an event already pending")
	}
	d.peeked = &ev
	return nil
}

func (d *Decoder) next() (Event, error) {
	if d.noContent {
		d.noContent = false
		return d.pop(), nil
	}

	for {
		b, err := d.r.ReadByte()
		if errors.Is(err, io.EOF) {
			if len(d.stack) == 0 {
				return Event{Kind: EOF}, nil
			}
			return Event{}, d.truncated("%d element(s) still open", len(d.stack))
		}
		if err != nil {
			return Event{}, err
		}
		d.off++

		switch b {
		case tokenSwitchPage:
			p, err := d.readByte()
			if err != nil {
				return Event{}, err
			}
			d.page = tags.Page(p)
			continue

		case tokenEnd:
			if len(d.stack) == 0 {
				return Event{}, d.malformed("END with no open element")
			}
			return d.pop(), nil

		case tokenStrI:
			if len(d.stack) == 0 {
				return Event{}, d.malformed("text outside any element")
			}
			raw, err := d.readInline()
			if err != nil {
				return Event{}, err
			}
			s, err := d.decodeText(raw)
			if err != nil {
				return Event{}, err
			}
			return Event{Kind: Text, Text: s}, nil

		case tokenOpaque:
			if len(d.stack) == 0 {
				return Event{}, d.malformed("opaque data outside any element")
			}
			n, err := d.readMBInt()
			if err != nil {
				return Event{}, err
			}
			// The length is untrusted; grow with the data actually read.
			var raw bytes.Buffer
			got, err := io.CopyN(&raw, d.r, int64(n))
			d.off += got
			if err != nil {
				if errors.Is(err, io.EOF) {
					return Event{}, d.truncated("opaque data of %d bytes", n)
				}
				return Event{}, err
			}
			return Event{Kind: Text, Text: raw.String()}, nil

		case tokenEntity, tokenLiteral, tokenPI, tokenLiteralC,
			tokenStrT, tokenLiteralA, tokenLiteralAC,
			tokenExtI0, tokenExtI0 + 1, tokenExtI0 + 2,
			tokenExtT0, tokenExtT0 + 1, tokenExtT0 + 2,
			tokenExt0, tokenExt0 + 1, tokenExt0 + 2:
			return Event{}, d.malformed("unsupported token 0x%02x", b)
		}

		if b&flagAttributes != 0 {
			return Event{}, d.malformed("attributes are not supported (token 0x%02x)", b)
		}
		code := b & tags.CodeMask
		if code < tags.FirstCode {
			return Event{}, d.malformed("invalid tag token 0x%02x", b)
		}
		tag := tags.Make(d.page, code)
		d.stack = append(d.stack, tag)
		if b&flagContent == 0 {
			d.noContent = true
		}
		return Event{Kind: StartElement, Tag: tag}, nil
	}
}

func (d *Decoder) pop() Event {
	top := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return Event{Kind: EndElement, Tag: top}
}

// readByte reads one byte that must exist; EOF is truncation.
func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, d.truncated("need 1 more byte")
		}
		return 0, err
	}
	d.off++
	return b, nil
}

// readMBInt decodes a WBXML mb_u_int32: 7 bits per byte, most significant
// group first, high bit set on every byte but the last.
func (d *Decoder) readMBInt() (uint32, error) {
	var v uint32
	for i := 0; ; i++ {
		if i == 5 {
			return 0, d.malformed("multibyte integer longer than 5 bytes")
		}
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if v > math.MaxUint32>>7 {
			return 0, d.malformed("multibyte integer exceeds 32 bits")
		}
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, nil
		}
	}
}

// readInline reads an inline string up to and excluding its NUL.
func (d *Decoder) readInline() ([]byte, error) {
	raw, err := d.r.ReadBytes(0)
	d.off += int64(len(raw))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, d.truncated("inline string without terminator")
		}
		return nil, err
	}
	return raw[:len(raw)-1], nil
}

func (d *Decoder) decodeText(raw []byte) (string, error) {
	if d.text == nil {
		return string(raw), nil
	}
	out, err := d.text.Bytes(raw)
	if err != nil {
		return "", d.malformed("text not valid in charset %d: %v", d.charset, err)
	}
	return string(out), nil
}

func (d *Decoder) malformed(format string, args ...any) error {
	return &SyntaxError{Offset: d.off, Err: ErrMalformed, Msg: fmt.Sprintf(format, args...)}
}

func (d *Decoder) truncated(format string, args ...any) error {
	return &SyntaxError{Offset: d.off, Err: ErrTruncated, Msg: fmt.Sprintf(format, args...)}
}
