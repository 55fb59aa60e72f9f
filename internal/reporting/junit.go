package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/routeflow/internal/scenario"
)

// JUnitReporter writes the run as JUnit XML, one testcase per scenario, for
// consumption by CI systems.
type JUnitReporter struct {
	collector
}

// NewJUnitReporter creates a JUnit reporter writing to writer.
func NewJUnitReporter(writer io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{collector: newCollector(writer, "junit_reporter")}
}

// Write records result.
func (r *JUnitReporter) Write(result scenario.Result) error { return r.add(result) }

// Close writes the XML document.
func (r *JUnitReporter) Close() error {
	return r.finish(func(w io.Writer, results []scenario.Result) error {
		doc := buildJUnit(results)
		_, err := doc.WriteTo(w)
		return err
	})
}

func buildJUnit(results []scenario.Result) *etree.Document {
	sum := scenario.Summarize(results)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", ToolName)
	suites.CreateAttr("tests", fmt.Sprint(sum.Total))
	suites.CreateAttr("failures", fmt.Sprint(sum.Failed))
	suites.CreateAttr("time", seconds(sum.Duration))

	ts := suites.CreateElement("testsuite")
	ts.CreateAttr("name", ToolName)
	ts.CreateAttr("tests", fmt.Sprint(sum.Total))
	ts.CreateAttr("failures", fmt.Sprint(sum.Failed))
	ts.CreateAttr("errors", "0")
	ts.CreateAttr("time", seconds(sum.Duration))
	if len(results) > 0 {
		ts.CreateAttr("timestamp", results[0].StartedAt.UTC().Format(time.RFC3339))
	}
	if sum.RunID != "" {
		props := ts.CreateElement("properties")
		p := props.CreateElement("property")
		p.CreateAttr("name", "run_id")
		p.CreateAttr("value", sum.RunID)
	}

	for _, res := range results {
		tc := ts.CreateElement("testcase")
		tc.CreateAttr("name", res.Name)
		tc.CreateAttr("classname", ToolName)
		tc.CreateAttr("time", seconds(res.Duration))
		if res.Passed() {
			continue
		}
		f := tc.CreateElement("failure")
		f.CreateAttr("message", res.Cause)
		kind := res.Kind
		if kind == "" {
			kind = scenario.KindError
		}
		f.CreateAttr("type", kind)
		f.SetText(fmt.Sprintf("state: %s\nstep: %s\n%s", res.State, res.Step, res.Cause))
	}

	doc.Indent(2)
	return doc
}
