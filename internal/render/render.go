// Package render formats aggregate reports for terminal display.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/thread-analysis/pkg/model"
)

// Options configures report rendering.
type Options struct {
	// NoColor disables ANSI color output.
	NoColor bool

	// ShowPerFileStats includes the per-file breakdown table.
	ShowPerFileStats bool
}

// Renderer writes human-readable reports to a terminal.
type Renderer struct {
	out  io.Writer
	opts Options
}

// NewRenderer creates a new Renderer writing to out.
func NewRenderer(out io.Writer, opts Options) *Renderer {
	return &Renderer{out: out, opts: opts}
}

// Render writes the full report: summary line, state averages, per-file
// statistics, and the ranked stacks with the highest count highlighted.
func (r *Renderer) Render(report *model.AggregateReport) {
	color.NoColor = r.opts.NoColor //nolint:reassign // intentional override of library global

	fmt.Fprintf(r.out, "Analyzed %d thread dump file(s)\n", report.FilesAnalyzed)

	if report.Empty() {
		color.New(color.FgRed).Fprintf(r.out, "No matching threads found\n")
		return
	}

	fmt.Fprintf(r.out, "Matched %d thread(s) across %d distinct stack(s)\n\n",
		report.TotalThreads(), len(report.RankedStacks))

	r.renderStateAverages(report)
	if r.opts.ShowPerFileStats {
		r.renderPerFileStats(report)
	}
	r.renderRankedStacks(report)
}

func (r *Renderer) renderStateAverages(report *model.AggregateReport) {
	if len(report.StateAverages) == 0 {
		return
	}

	states := make([]string, 0, len(report.StateAverages))
	for state := range report.StateAverages {
		states = append(states, state)
	}
	sort.Strings(states)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Thread State", "Avg per File"})
	for _, state := range states {
		tbl.AppendRow(table.Row{state, fmt.Sprintf("%.2f", report.StateAverages[state])})
	}

	fmt.Fprintf(r.out, "State averages:\n%s\n\n", tbl.Render())
}

func (r *Renderer) renderPerFileStats(report *model.AggregateReport) {
	if len(report.PerFileStats) == 0 {
		return
	}

	total := report.TotalThreads()

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Threads", "Share", "States"})
	for _, stats := range report.PerFileStats {
		share := "-"
		if total > 0 {
			share = fmt.Sprintf("%.1f%%", float64(stats.TotalThreads)/float64(total)*100)
		}
		tbl.AppendRow(table.Row{stats.FileName, stats.TotalThreads, share, formatStateCounts(stats.StateCounts)})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files", len(report.PerFileStats)), total, "", ""})

	fmt.Fprintf(r.out, "Per-file statistics:\n%s\n\n", tbl.Render())
}

func (r *Renderer) renderRankedStacks(report *model.AggregateReport) {
	maxCount := report.MaxCount()

	fmt.Fprintf(r.out, "Ranked stacks:\n")
	for i, rs := range report.RankedStacks {
		fmt.Fprintf(r.out, "\n#%d  ", i+1)
		if rs.Count == maxCount && maxCount > 1 {
			color.New(color.FgRed, color.Bold).Fprintf(r.out, "Count: %d (HIGHEST)\n", rs.Count)
		} else {
			fmt.Fprintf(r.out, "Count: %d\n", rs.Count)
		}

		if states := report.StatesFor(rs.Stack); len(states) > 0 {
			fmt.Fprintf(r.out, "    States: %s\n", formatStateCounts(states))
		}

		for j, frame := range rs.Stack {
			fmt.Fprintf(r.out, "    %s", frame)
			if j == 0 && rs.Count > 1 {
				color.New(color.FgYellow).Fprintf(r.out, "  <-- %d threads here", rs.Count)
			}
			fmt.Fprintln(r.out)
		}
	}
}

// formatStateCounts renders a state count map as "STATE=N, STATE=N" with
// states in sorted order.
func formatStateCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	states := make([]string, 0, len(counts))
	for state := range counts {
		states = append(states, state)
	}
	sort.Strings(states)

	parts := make([]string, 0, len(states))
	for _, state := range states {
		parts = append(parts, fmt.Sprintf("%s=%d", state, counts[state]))
	}
	return strings.Join(parts, ", ")
}
