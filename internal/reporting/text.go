package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/xkilldash9x/routeflow/internal/scenario"
)

// TextReporter prints one line per scenario as it finishes, then a summary
// listing every failure with its cause.
type TextReporter struct {
	collector
}

// NewTextReporter creates a text reporter writing to writer.
func NewTextReporter(writer io.WriteCloser) *TextReporter {
	return &TextReporter{collector: newCollector(writer, "text_reporter")}
}

// Write prints the outcome line of result.
func (r *TextReporter) Write(result scenario.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errClosed
	}
	r.results = append(r.results, result)
	_, err := fmt.Fprintln(r.writer, outcomeLine(result))
	return err
}

// Close prints the summary.
func (r *TextReporter) Close() error {
	return r.finish(func(w io.Writer, results []scenario.Result) error {
		_, err := io.WriteString(w, renderSummary(scenario.Summarize(results)))
		return err
	})
}

func outcomeLine(r scenario.Result) string {
	if r.Passed() {
		return fmt.Sprintf("PASS  %-28s %ss", r.Name, seconds(r.Duration))
	}
	return fmt.Sprintf("FAIL  %-28s %ss  %s", r.Name, seconds(r.Duration), where(r.State, r.Step))
}

func where(state scenario.State, step string) string {
	if step == "" {
		return fmt.Sprintf("[%s]", state)
	}
	return fmt.Sprintf("[%s at %s]", state, step)
}

func renderSummary(s scenario.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%d scenarios, %d passed, %d failed in %ss\n", s.Total, s.Passed, s.Failed, seconds(s.Duration))
	if s.RunID != "" {
		fmt.Fprintf(&b, "run %s\n", s.RunID)
	}
	if len(s.Failures) == 0 {
		return b.String()
	}
	b.WriteString("\nFailures:\n")
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "  %s %s\n", f.Name, where(f.State, f.Step))
		if f.Kind != "" {
			fmt.Fprintf(&b, "    kind:  %s\n", f.Kind)
		}
		fmt.Fprintf(&b, "    cause: %s\n", f.Cause)
	}
	return b.String()
}
