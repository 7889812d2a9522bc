package wbxml

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Global WBXML tokens. Only the ones EAS uses are decoded; the rest are
// rejected as malformed.
const (
	tokenSwitchPage = 0x00
	tokenEnd        = 0x01
	tokenEntity     = 0x02
	tokenStrI       = 0x03
	tokenLiteral    = 0x04
	tokenExtI0      = 0x40
	tokenPI         = 0x43
	tokenLiteralC   = 0x44
	tokenExtT0      = 0x80
	tokenStrT       = 0x83
	tokenLiteralA   = 0x84
	tokenExt0       = 0xc0
	tokenOpaque     = 0xc3
	tokenLiteralAC  = 0xc4

	flagContent    = 0x40
	flagAttributes = 0x80
)

const (
	// Version is the WBXML version byte written by the encoder (1.3).
	Version = 0x03

	// publicIDUnknown is the "unknown or missing public identifier" value.
	publicIDUnknown = 0x01
)

// Charset is an IANA MIBenum character set identifier as carried in the
// document header.
type Charset uint32

// Character sets seen in EAS documents.
const (
	CharsetUnknown     Charset = 0
	CharsetUSASCII     Charset = 3
	CharsetISO88591    Charset = 4
	CharsetISO88592    Charset = 5
	CharsetUTF8        Charset = 106
	CharsetWindows1252 Charset = 2252
)

// decoderFor returns the text decoder for cs, or nil when strings are
// already UTF-8 (or the charset is unknown and taken as UTF-8).
func decoderFor(cs Charset) *encoding.Decoder {
	switch cs {
	case CharsetUSASCII, CharsetISO88591:
		return charmap.ISO8859_1.NewDecoder()
	case CharsetISO88592:
		return charmap.ISO8859_2.NewDecoder()
	case CharsetWindows1252:
		return charmap.Windows1252.NewDecoder()
	default:
		return nil
	}
}

var (
	// ErrMalformed reports a stream that is not valid EAS WBXML: an
	// unsupported token, a misplaced END, or a non-digit in an integer.
	ErrMalformed = errors.New("wbxml: malformed stream")

	// ErrTruncated reports input that ended in the middle of a token or
	// with elements still open. A clean end of document is not an error.
	ErrTruncated = errors.New("wbxml: unexpected end of stream")
)

// SyntaxError locates a decoding failure. It unwraps to ErrMalformed or
// ErrTruncated.
type SyntaxError struct {
	Offset int64
	Err    error
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
