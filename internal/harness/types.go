package harness

import (
	"net/url"
	"time"
)

// Request is one request recorded by a Server.
type Request struct {
	Seq     int        `json:"seq"`
	Method  string     `json:"method"`
	Command string     `json:"command,omitempty"`
	Query   url.Values `json:"query,omitempty"`

	ContentType     string `json:"content_type,omitempty"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	User            string `json:"user,omitempty"`

	Body []byte `json:"-"`

	// Dump is Body in fixture text when the body was WBXML and decoded
	// cleanly. It is empty otherwise.
	Dump string `json:"dump,omitempty"`
}

// Param returns the first value of query parameter key.
func (r Request) Param(key string) string {
	return r.Query.Get(key)
}

// Reply is one scripted response. The body comes from WBXML (fixture text),
// Body (raw text) or Size (generated bytes), in that order of preference.
type Reply struct {
	Command string `yaml:"command"`

	// Status is the HTTP status code. Zero means 200.
	Status int `yaml:"status,omitempty"`

	WBXML string `yaml:"wbxml,omitempty"`
	Body  string `yaml:"body,omitempty"`
	Size  int    `yaml:"size,omitempty"`

	ContentType string            `yaml:"content_type,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`

	// Chunked streams the body without a Content-Length.
	Chunked bool `yaml:"chunked,omitempty"`

	// ShortBy announces a Content-Length this many bytes longer than the
	// body actually written.
	ShortBy int `yaml:"short_by,omitempty"`

	// Delay holds the response back. Hang holds it until the client gives
	// up on the request.
	Delay time.Duration `yaml:"delay,omitempty"`
	Hang  bool          `yaml:"hang,omitempty"`
}

// PatternBytes returns n bytes of the deterministic body used for Size
// replies.
func PatternBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
