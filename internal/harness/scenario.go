package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario scripts the server side of a test and the requests the client
// is expected to make.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Versions is the MS-ASProtocolVersions header returned to OPTIONS.
	// Empty means the header is omitted.
	Versions string `yaml:"versions,omitempty"`

	// Replies are queued per command in the order given.
	Replies []Reply `yaml:"replies"`

	// Assertions validate the recorded requests.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates recorded requests.
type Assertion struct {
	// Type is one of request_count, request_order, request_contains.
	Type string `yaml:"type"`

	// Command is used by request_count and request_contains.
	Command string `yaml:"command,omitempty"`

	// Count is used by request_count.
	Count int `yaml:"count,omitempty"`

	// Commands is used by request_order.
	Commands []string `yaml:"commands,omitempty"`

	// Lines and Params are used by request_contains. Lines match whole
	// lines of the request dump with indentation ignored.
	Lines  []string          `yaml:"lines,omitempty"`
	Params map[string]string `yaml:"params,omitempty"`
}

// Assertion type constants.
const (
	AssertRequestCount    = "request_count"
	AssertRequestOrder    = "request_order"
	AssertRequestContains = "request_contains"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", dir)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string)
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, dup := seen[sc.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), sc.Name, prev)
		}
		seen[sc.Name] = filepath.Base(p)
		out = append(out, sc)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	for i, r := range s.Replies {
		if r.Command == "" {
			return fmt.Errorf("replies[%d]: command is required", i)
		}
		bodies := 0
		for _, set := range []bool{r.WBXML != "", r.Body != "", r.Size > 0} {
			if set {
				bodies++
			}
		}
		if bodies > 1 {
			return fmt.Errorf("replies[%d]: only one of wbxml, body and size may be set", i)
		}
		if r.Size < 0 || r.ShortBy < 0 {
			return fmt.Errorf("replies[%d]: size and short_by must be non-negative", i)
		}
		if r.Chunked && r.ShortBy > 0 {
			return fmt.Errorf("replies[%d]: chunked and short_by are exclusive", i)
		}
		if r.WBXML != "" {
			if _, err := Compile(r.WBXML); err != nil {
				return fmt.Errorf("replies[%d]: %w", i, err)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRequestCount:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for request_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for request_count", index)
		}
	case AssertRequestOrder:
		if len(a.Commands) == 0 {
			return fmt.Errorf("assertions[%d]: commands list is required for request_order", index)
		}
	case AssertRequestContains:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for request_contains", index)
		}
		if len(a.Lines) == 0 && len(a.Params) == 0 {
			return fmt.Errorf("assertions[%d]: lines or params are required for request_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
