package harness

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// The fixture text format writes one element per line, indented two
// spaces per level:
//
//	FolderHierarchy:FolderSync
//	  FolderHierarchy:Status 1
//	  FolderHierarchy:SyncKey abc123
//	  FolderHierarchy:Changes
//	    FolderHierarchy:Add
//	      FolderHierarchy:DisplayName Inbox
//
// A value after the tag is the element's text. Values with surrounding
// spaces, quotes or control characters are written Go-quoted. An element
// with neither value nor children is encoded without content. Blank lines
// and lines starting with # are ignored. Dump produces the same format.

const indentUnit = "  "

type fixtureLine struct {
	num   int
	depth int
	tag   tags.Tag
	value string
	text  bool // value present
}

// Compile encodes fixture text as a UTF-8 WBXML document.
func Compile(src string) ([]byte, error) {
	lines, err := scanFixture(src)
	if err != nil {
		return nil, err
	}

	e := wbxml.NewDocument()
	open := 0
	for i, l := range lines {
		if l.depth > open {
			return nil, fmt.Errorf("line %d: indented too deep", l.num)
		}
		for ; open > l.depth; open-- {
			e.End()
		}
		hasChildren := i+1 < len(lines) && lines[i+1].depth > l.depth
		switch {
		case hasChildren && l.text:
			return nil, fmt.Errorf("line %d: %s has both a value and children", l.num, l.tag)
		case hasChildren:
			e.Start(l.tag)
			open++
		case l.text:
			e.Data(l.tag, l.value)
		default:
			e.Empty(l.tag)
		}
	}
	for ; open > 0; open-- {
		e.End()
	}
	return e.Finish()
}

// MustCompile is Compile for fixtures known to be valid.
func MustCompile(src string) []byte {
	b, err := Compile(src)
	if err != nil {
		panic("harness: " + err.Error())
	}
	return b
}

func scanFixture(src string) ([]fixtureLine, error) {
	var out []fixtureLine
	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	baseIndent := -1
	for num := 1; sc.Scan(); num++ {
		raw := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimLeft(raw, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "\t") {
			return nil, fmt.Errorf("line %d: indent with spaces, not tabs", num)
		}
		indent := len(raw) - len(trimmed)
		if baseIndent < 0 {
			baseIndent = indent
		}
		indent -= baseIndent
		if indent < 0 || indent%len(indentUnit) != 0 {
			return nil, fmt.Errorf("line %d: indent must be a multiple of %d spaces", num, len(indentUnit))
		}

		name, rest, hasValue := strings.Cut(trimmed, " ")
		tag, err := tags.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", num, err)
		}
		l := fixtureLine{num: num, depth: indent / len(indentUnit), tag: tag, text: hasValue, value: rest}
		if hasValue && strings.HasPrefix(rest, `"`) {
			v, err := strconv.Unquote(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad quoted value: %w", num, err)
			}
			l.value = v
		}
		out = append(out, l)
	}
	return out, sc.Err()
}

// Dump decodes a WBXML document into fixture text. Text mixed with child
// elements, which EAS never sends, is written as a quoted line of its own.
func Dump(data []byte) (string, error) {
	d, err := wbxml.Open(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	depth := 0
	for {
		ev, err := d.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case wbxml.EOF:
			return sb.String(), nil

		case wbxml.EndElement:
			depth--

		case wbxml.Text:
			writeIndent(&sb, depth)
			sb.WriteString(strconv.Quote(ev.Text))
			sb.WriteByte('\n')

		case wbxml.StartElement:
			writeIndent(&sb, depth)
			sb.WriteString(ev.Tag.String())

			next, err := d.Peek()
			if err != nil {
				return "", err
			}
			switch next.Kind {
			case wbxml.EndElement:
				_, _ = d.Next()
				sb.WriteByte('\n')
				continue
			case wbxml.Text:
				var text strings.Builder
				for next.Kind == wbxml.Text {
					_, _ = d.Next()
					text.WriteString(next.Text)
					if next, err = d.Peek(); err != nil {
						return "", err
					}
				}
				sb.WriteByte(' ')
				sb.WriteString(formatValue(text.String()))
				sb.WriteByte('\n')
				if next.Kind == wbxml.EndElement {
					_, _ = d.Next()
					continue
				}
				depth++
				continue
			}
			sb.WriteByte('\n')
			depth++
		}
	}
}

// MustDump is Dump for documents known to be valid.
func MustDump(data []byte) string {
	s, err := Dump(data)
	if err != nil {
		panic("harness: " + err.Error())
	}
	return s
}

func writeIndent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString(indentUnit)
	}
}

func formatValue(s string) string {
	if s == "" || strings.HasPrefix(s, `"`) || strings.TrimSpace(s) != s {
		return strconv.Quote(s)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return strconv.Quote(s)
		}
	}
	return s
}
