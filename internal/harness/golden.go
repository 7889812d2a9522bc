package harness

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// identityParams are sent with every command and left out of transcripts.
var identityParams = map[string]bool{
	"Cmd":        true,
	"User":       true,
	"DeviceId":   true,
	"DeviceType": true,
}

// Transcript renders requests one per header line, followed by the body
// dump indented under it. Non-WBXML bodies are summarised by size and
// content type.
//
//	#2 POST Sync CollectionId=5
//	  AirSync:Sync
//	    ...
func Transcript(reqs []Request) string {
	var buf strings.Builder
	for _, r := range reqs {
		fmt.Fprintf(&buf, "#%d %s", r.Seq, r.Method)
		if r.Command != "" {
			fmt.Fprintf(&buf, " %s", r.Command)
		}
		keys := make([]string, 0, len(r.Query))
		for k := range r.Query {
			if !identityParams[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%s", k, r.Query.Get(k))
		}
		buf.WriteByte('\n')

		switch {
		case r.Dump != "":
			for _, line := range strings.SplitAfter(r.Dump, "\n") {
				if line != "" {
					buf.WriteString(indentUnit)
					buf.WriteString(line)
				}
			}
		case len(r.Body) > 0:
			fmt.Fprintf(&buf, "%s<%d bytes %s>\n", indentUnit, len(r.Body), r.ContentType)
		}
	}
	return buf.String()
}

// AssertGolden compares the transcript of reqs against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertGolden(t *testing.T, name string, reqs []Request) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Transcript(reqs)))
}
