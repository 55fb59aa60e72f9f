package reporting

import (
	"io"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/routeflow/internal/scenario"
)

type jsonReport struct {
	Tool        string         `json:"tool"`
	ToolVersion string         `json:"tool_version,omitempty"`
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     jsonSummary    `json:"summary"`
	Scenarios   []jsonScenario `json:"scenarios"`
}

type jsonSummary struct {
	Total      int      `json:"total"`
	Passed     int      `json:"passed"`
	Failed     int      `json:"failed"`
	DurationMS int64    `json:"duration_ms"`
	Failures   []string `json:"failures"`
}

type jsonScenario struct {
	Name       string    `json:"name"`
	Outcome    string    `json:"outcome"`
	State      string    `json:"state"`
	Step       string    `json:"step,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// JSONReporter writes the run as a single JSON document.
type JSONReporter struct {
	collector
	toolVersion string
	now         func() time.Time
}

// NewJSONReporter creates a JSON reporter writing to writer.
func NewJSONReporter(writer io.WriteCloser, toolVersion string) *JSONReporter {
	return &JSONReporter{collector: newCollector(writer, "json_reporter"), toolVersion: toolVersion, now: time.Now}
}

// Write records result.
func (r *JSONReporter) Write(result scenario.Result) error { return r.add(result) }

// Close encodes the report.
func (r *JSONReporter) Close() error {
	return r.finish(func(w io.Writer, results []scenario.Result) error {
		sum := scenario.Summarize(results)
		doc := jsonReport{
			Tool:        ToolName,
			ToolVersion: r.toolVersion,
			RunID:       sum.RunID,
			GeneratedAt: r.now().UTC(),
			Summary: jsonSummary{
				Total:      sum.Total,
				Passed:     sum.Passed,
				Failed:     sum.Failed,
				DurationMS: sum.Duration.Milliseconds(),
				Failures:   sum.FailedNames(),
			},
			Scenarios: make([]jsonScenario, 0, len(results)),
		}
		for _, res := range results {
			doc.Scenarios = append(doc.Scenarios, jsonScenario{
				Name:       res.Name,
				Outcome:    string(res.Outcome),
				State:      res.State.String(),
				Step:       res.Step,
				Kind:       res.Kind,
				Cause:      res.Cause,
				StartedAt:  res.StartedAt.UTC(),
				DurationMS: res.Duration.Milliseconds(),
			})
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ") // Pretty print
		return encoder.Encode(doc)
	})
}
