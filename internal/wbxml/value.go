package wbxml

import (
	"math"
	"strings"

	"github.com/roach88/airsync/internal/tags"
)

// ValueString reads the character data of the element whose start was
// just returned and consumes its end. An empty element yields "".
func (d *Decoder) ValueString() (string, error) {
	var sb strings.Builder
	for {
		ev, err := d.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case Text:
			sb.WriteString(ev.Text)
		case EndElement:
			return sb.String(), nil
		case StartElement:
			return "", d.malformed("element %s where text was expected", ev.Tag)
		default:
			return "", d.truncated("document ended inside a value")
		}
	}
}

// ValueInt reads the element value as an unsigned base-10 ASCII integer
// and consumes the element end. An empty element yields 0.
func (d *Decoder) ValueInt() (int, error) {
	s, err := d.ValueString()
	if err != nil {
		return 0, err
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, d.malformed("non-digit %q in integer %q", c, s)
		}
		if n > (math.MaxInt32-int(c-'0'))/10 {
			return 0, d.malformed("integer %q overflows", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// NextTag returns the next child start tag of parent. It reports false
// once the end of parent has been consumed. Text and the ends of children
// the caller did not read are passed over. With parent zero it walks
// top-level elements and reports false at end of document.
func (d *Decoder) NextTag(parent tags.Tag) (tags.Tag, bool, error) {
	for {
		ev, err := d.Next()
		if err != nil {
			return 0, false, err
		}
		switch ev.Kind {
		case StartElement:
			return ev.Tag, true, nil
		case EndElement:
			if ev.Tag == parent {
				return 0, false, nil
			}
		case EOF:
			if parent == 0 {
				return 0, false, nil
			}
			return 0, false, d.truncated("document ended inside %s", parent)
		}
	}
}

// Skip consumes the element whose start was just returned, including all
// of its children.
func (d *Decoder) Skip() error {
	target := d.Depth() - 1
	if d.peeked != nil {
		switch d.peeked.Kind {
		case StartElement:
			target--
		case EndElement:
			target++
		}
	}
	for {
		ev, err := d.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case EndElement:
			if d.Depth() <= target {
				return nil
			}
		case EOF:
			return d.truncated("document ended while skipping")
		}
	}
}
