package tags

import (
	"fmt"
	"slices"
	"strings"
)

// Page is a WBXML code page number.
type Page uint8

// EAS code pages.
const (
	AirSync           Page = 0
	Contacts          Page = 1
	Email             Page = 2
	AirNotify         Page = 3
	Calendar          Page = 4
	Move              Page = 5
	GetItemEstimate   Page = 6
	FolderHierarchy   Page = 7
	MeetingResponse   Page = 8
	Tasks             Page = 9
	ResolveRecipients Page = 10
	ValidateCert      Page = 11
	Contacts2         Page = 12
	Ping              Page = 13
	Provision         Page = 14
	Search            Page = 15
	GAL               Page = 16
	AirSyncBase       Page = 17
	ItemOperations    Page = 20
	ComposeMail       Page = 21
)

const (
	// FirstCode is the lowest tag code; codes 0-4 are WBXML global tokens.
	FirstCode byte = 0x05

	// CodeMask selects the tag code from a token byte.
	CodeMask byte = 0x3f

	pageShift = 6
)

// Tag identifies an element by page and code: page<<6 | code.
type Tag uint16

// Make combines a page and a code into a Tag.
func Make(p Page, code byte) Tag {
	return Tag(p)<<pageShift | Tag(code&CodeMask)
}

// Page returns the code page of t.
func (t Tag) Page() Page { return Page(t >> pageShift) }

// Code returns the 6-bit tag code of t.
func (t Tag) Code() byte { return byte(t) & CodeMask }

// String renders t as "Page:Name", or a hex form for unknown tags.
func (t Tag) String() string {
	table, ok := catalog[t.Page()]
	if !ok {
		return fmt.Sprintf("page%d:0x%02x", t.Page(), t.Code())
	}
	if name, ok := NameOf(t.Page(), t.Code()); ok {
		return table.name + ":" + name
	}
	return fmt.Sprintf("%s:0x%02x", table.name, t.Code())
}

// Name returns the page-local name of t, or "" when unknown.
func (t Tag) Name() string {
	name, _ := NameOf(t.Page(), t.Code())
	return name
}

// Resolve returns the ordered tag names of page p, or nil when the page
// is not in the catalog. The returned slice is a copy.
func Resolve(p Page) []string {
	table, ok := catalog[p]
	if !ok {
		return nil
	}
	return slices.Clone(table.names)
}

// CodeOf returns the tag code of name within page p.
func CodeOf(p Page, name string) (byte, bool) {
	code, ok := byName[p][name]
	return code, ok
}

// NameOf returns the name of code within page p.
func NameOf(p Page, code byte) (string, bool) {
	table, ok := catalog[p]
	if !ok || code < FirstCode {
		return "", false
	}
	i := int(code - FirstCode)
	if i >= len(table.names) {
		return "", false
	}
	return table.names[i], true
}

// Parse resolves a qualified "Page:Name" symbol to a Tag.
func Parse(qualified string) (Tag, error) {
	ns, name, ok := strings.Cut(qualified, ":")
	if !ok {
		return 0, fmt.Errorf("tag %q: missing page prefix", qualified)
	}
	page, ok := pageByName[ns]
	if !ok {
		return 0, fmt.Errorf("tag %q: unknown page %q", qualified, ns)
	}
	code, ok := CodeOf(page, name)
	if !ok {
		return 0, fmt.Errorf("tag %q: unknown name %q", qualified, name)
	}
	return Make(page, code), nil
}

// mustTag resolves a symbol through the catalog at init time.
func mustTag(p Page, name string) Tag {
	code, ok := CodeOf(p, name)
	if !ok {
		panic(fmt.Sprintf("tags: %q not in page %d", name, p))
	}
	return Make(p, code)
}
