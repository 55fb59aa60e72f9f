package scenario

import (
	"fmt"
	"time"
)

// Failure is one failed scenario in a Summary.
type Failure struct {
	Name  string
	State State
	Step  string
	Kind  string
	Cause string
}

// Summary aggregates the results of a run.
type Summary struct {
	RunID    string
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration
	Failures []Failure
}

// Summarize aggregates results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if s.RunID == "" {
			s.RunID = r.RunID
		}
		s.Total++
		s.Duration += r.Duration
		if r.Passed() {
			s.Passed++
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, Failure{Name: r.Name, State: r.State, Step: r.Step, Kind: r.Kind, Cause: r.Cause})
	}
	return s
}

// OK reports whether every scenario passed.
func (s Summary) OK() bool { return s.Failed == 0 }

// FailedNames lists the failed scenarios in run order.
func (s Summary) FailedNames() []string {
	names := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		names = append(names, f.Name)
	}
	return names
}

// Select returns the scenarios of suite named in names, in suite order. With
// no names it returns the whole suite.
func Select(suite []Scenario, names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return suite, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Scenario
	for _, sc := range suite {
		if want[sc.Name] {
			out = append(out, sc)
			delete(want, sc.Name)
		}
	}
	for _, n := range names {
		if want[n] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, n)
		}
	}
	return out, nil
}
