package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// TextInfo describes where and how a message body is held. It is stored
// as "location;encoding;charset;size".
type TextInfo struct {
	Location string
	Encoding string
	Charset  string
	Size     int64
}

// InlineTextInfo describes a body delivered inline in a Sync response.
func InlineTextInfo(size int64) TextInfo {
	return TextInfo{Location: "X", Encoding: "X", Charset: "8", Size: size}
}

func (ti TextInfo) String() string {
	return fmt.Sprintf("%s;%s;%s;%d", ti.Location, ti.Encoding, ti.Charset, ti.Size)
}

// ParseTextInfo parses the stored form. The empty string is the zero value.
func ParseTextInfo(s string) (TextInfo, error) {
	if s == "" {
		return TextInfo{}, nil
	}
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return TextInfo{}, fmt.Errorf("text info %q: want 4 fields, got %d", s, len(parts))
	}
	size, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return TextInfo{}, fmt.Errorf("text info %q: size: %w", s, err)
	}
	return TextInfo{Location: parts[0], Encoding: parts[1], Charset: parts[2], Size: size}, nil
}

// Value implements driver.Valuer.
func (ti TextInfo) Value() (driver.Value, error) {
	if ti == (TextInfo{}) {
		return "", nil
	}
	return ti.String(), nil
}

// Scan implements sql.Scanner.
func (ti *TextInfo) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("text info: cannot scan %T", src)
	}
	parsed, err := ParseTextInfo(s)
	if err != nil {
		return err
	}
	*ti = parsed
	return nil
}
