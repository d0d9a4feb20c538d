// Package reporting renders the outcome of an executor run.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/BrowserStackCE/browserstack-playwright-nx/runner"
)

// StatusString returns the human readable status of a result.
func StatusString(r *runner.Result) string {
	if r.Success {
		return "✓ pass"
	}
	return "✗ fail"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// SummaryTable builds a two-column table describing r. Colored tables are meant
// for terminals, plain ones for files.
func SummaryTable(r *runner.Result, colored bool) table.Writer {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("End-to-End Test Results (%s)", formatDuration(r.Duration)))
	t.AppendHeader(table.Row{"Field", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Field", Align: text.AlignLeft},
		{Name: "Value", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	args := strings.Join(r.Args, " ")
	if args == "" {
		args = "(none)"
	}
	t.AppendRow(table.Row{"Project", r.Project})
	t.AppendRow(table.Row{"Run ID", r.RunID})
	t.AppendRow(table.Row{"Arguments", args})
	t.AppendRow(table.Row{"Exit Code", r.ExitCode})
	t.AppendRow(table.Row{"Duration", formatDuration(r.Duration)})
	t.AppendFooter(table.Row{"Status", StatusString(r)})

	switch {
	case !colored:
		t.SetStyle(table.StyleDefault)
	case r.Success:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	return t
}

// PrintSummary renders the summary of r to w.
func PrintSummary(w io.Writer, r *runner.Result, colored bool) {
	t := SummaryTable(r, colored)
	t.SetOutputMirror(w)
	t.Render()
}
