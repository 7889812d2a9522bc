package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// openDocument opens body and checks that its root element is root.
func openDocument(op string, body []byte, root tags.Tag) (*wbxml.Decoder, error) {
	d, err := wbxml.Open(bytes.NewReader(body))
	if err != nil {
		return nil, easerr.Malformed(op, err)
	}
	tag, ok, err := d.NextTag(0)
	if err != nil {
		return nil, easerr.Malformed(op, err)
	}
	if !ok {
		return nil, easerr.Malformed(op, fmt.Errorf("empty document"))
	}
	if tag != root {
		return nil, easerr.Malformed(op, fmt.Errorf("root element %s, want %s", tag, root))
	}
	return d, nil
}

// parseDate converts an EAS UTC date, YYYY-MM-DDTHH:MM:SS.sssZ, to epoch
// milliseconds by fixed-offset slicing.
func parseDate(s string) (int64, error) {
	if len(s) < 23 || s[4] != '-' || s[7] != '-' || s[10] != 'T' ||
		s[13] != ':' || s[16] != ':' || s[19] != '.' {
		return 0, fmt.Errorf("%w: date %q: want YYYY-MM-DDTHH:MM:SS.sssZ", wbxml.ErrMalformed, s)
	}
	fields := [7]int{}
	spans := [7][2]int{{0, 4}, {5, 7}, {8, 10}, {11, 13}, {14, 16}, {17, 19}, {20, 23}}
	for i, sp := range spans {
		n, err := strconv.Atoi(s[sp[0]:sp[1]])
		if err != nil {
			return 0, fmt.Errorf("%w: date %q: %v", wbxml.ErrMalformed, s, err)
		}
		fields[i] = n
	}
	t := time.Date(fields[0], time.Month(fields[1]), fields[2],
		fields[3], fields[4], fields[5], fields[6]*int(time.Millisecond), time.UTC)
	return t.UnixMilli(), nil
}

// formatDate is the inverse of parseDate.
func formatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
