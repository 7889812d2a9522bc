package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails. It carries the
// request list to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Requests []Request
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nRequests:\n")
	for _, r := range e.Requests {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", r.Seq, r.Method, r.Command)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages. An empty result means all passed.
func EvaluateAssertions(reqs []Request, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRequestCount:
			err = assertRequestCount(reqs, a)
		case AssertRequestOrder:
			err = assertRequestOrder(reqs, a)
		case AssertRequestContains:
			err = assertRequestContains(reqs, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertRequestCount(reqs []Request, a Assertion) error {
	count := 0
	for _, r := range reqs {
		if r.Command == a.Command {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertRequestCount,
			Expected: fmt.Sprintf("%s received %d times", a.Command, a.Count),
			Actual:   fmt.Sprintf("received %d times", count),
			Requests: reqs,
		}
	}
	return nil
}

// assertRequestOrder checks that the first occurrence of each command
// comes after the first occurrence of the one before it. Other requests
// may come in between.
func assertRequestOrder(reqs []Request, a Assertion) error {
	positions := make(map[string]int)
	for i, r := range reqs {
		if _, seen := positions[r.Command]; !seen {
			positions[r.Command] = i + 1
		}
	}

	for _, cmd := range a.Commands {
		if positions[cmd] == 0 {
			return &AssertionError{
				Type:     AssertRequestOrder,
				Expected: fmt.Sprintf("all commands present: %v", a.Commands),
				Actual:   fmt.Sprintf("missing command: %s", cmd),
				Requests: reqs,
			}
		}
	}
	for i := 1; i < len(a.Commands); i++ {
		prev, curr := a.Commands[i-1], a.Commands[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertRequestOrder,
				Expected: fmt.Sprintf("commands in order: %v", a.Commands),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Requests: reqs,
			}
		}
	}
	return nil
}

func assertRequestContains(reqs []Request, a Assertion) error {
	for _, r := range reqs {
		if r.Command == a.Command && matchRequest(r, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRequestContains,
		Expected: fmt.Sprintf("%s with lines %q and params %v", a.Command, a.Lines, a.Params),
		Actual:   "no matching request",
		Requests: reqs,
	}
}

func matchRequest(r Request, a Assertion) bool {
	for k, v := range a.Params {
		if r.Param(k) != v {
			return false
		}
	}
	if len(a.Lines) == 0 {
		return true
	}
	have := make(map[string]bool)
	for _, line := range strings.Split(r.Dump, "\n") {
		have[strings.TrimSpace(line)] = true
	}
	for _, want := range a.Lines {
		if !have[strings.TrimSpace(want)] {
			return false
		}
	}
	return true
}
