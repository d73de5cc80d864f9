// Package tui renders pipeline results for the terminal.
// Simple streaming output, no interactive screens.
package tui

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/tableflow/tableflow/internal/model"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFCC00")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
)

// Renderer writes human-readable reports.
type Renderer struct {
	out io.Writer

	// Verbose includes per-row diagnostics and the transformation log.
	Verbose bool
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Result prints the consolidated pipeline result.
func (r *Renderer) Result(result *model.PipelineResult) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, titleStyle.Render("RUN SUMMARY"))
	fmt.Fprintln(r.out, mutedStyle.Render("  ─────────────────────────────────────"))

	stats := result.Stats
	fmt.Fprintf(r.out, "  %s %d rows, %d columns\n",
		mutedStyle.Render("Input:"), stats.TotalRows, stats.FieldsProcessed)

	if stats.InvalidRows == 0 {
		fmt.Fprintf(r.out, "  %s %s\n", mutedStyle.Render("Valid:"),
			successStyle.Render(fmt.Sprintf("%d/%d", stats.ValidRows, stats.TotalRows)))
	} else {
		fmt.Fprintf(r.out, "  %s %s\n", mutedStyle.Render("Valid:"),
			accentStyle.Render(fmt.Sprintf("%d/%d (%d invalid)", stats.ValidRows, stats.TotalRows, stats.InvalidRows)))
	}

	fmt.Fprintf(r.out, "  %s %d applied", mutedStyle.Render("Fixes:"), stats.TransformationsApplied)
	if stats.DuplicatesRemoved > 0 {
		fmt.Fprintf(r.out, ", %d duplicates removed", stats.DuplicatesRemoved)
	}
	fmt.Fprintln(r.out)

	if len(result.Mapping) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, accentStyle.Render("▸ FIELD MAPPING"))
		for _, header := range sortedKeys(result.Mapping) {
			fmt.Fprintf(r.out, "  %s → %s\n", mutedStyle.Render(header), result.Mapping[header])
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, accentStyle.Render(fmt.Sprintf("▸ UNRESOLVED ISSUES (%d)", len(result.Errors))))
		limit := len(result.Errors)
		if !r.Verbose && limit > 10 {
			limit = 10
		}
		for _, d := range result.Errors[:limit] {
			fmt.Fprintf(r.out, "  row %d, %s: %s\n", d.Row, d.Field, d.Message)
		}
		if limit < len(result.Errors) {
			fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf("  ... and %d more", len(result.Errors)-limit)))
		}
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(r.out, "\n  %s %s\n", warnStyle.Render("!"), w)
	}

	if len(result.Suggestions) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, accentStyle.Render("▸ SUGGESTIONS"))
		for _, s := range result.Suggestions {
			fmt.Fprintf(r.out, "  • %s\n", s)
		}
	}

	if r.Verbose && len(result.Transformations) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, accentStyle.Render(fmt.Sprintf("▸ TRANSFORMATIONS (%d)", len(result.Transformations))))
		for _, t := range result.Transformations {
			fmt.Fprintf(r.out, "  row %d, %s: %s (%v → %v)\n",
				t.Row, t.Field, t.Operation, t.OriginalValue, t.NewValue)
		}
	}

	fmt.Fprintln(r.out)
}

// Analysis prints column profiles and recommendations.
func (r *Renderer) Analysis(profiles []model.ColumnProfile, recommendations []string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, accentStyle.Render("▸ COLUMN ANALYSIS"))
	for _, p := range profiles {
		fmt.Fprintf(r.out, "  %s %s  %s\n",
			titleStyle.Render(p.Header),
			mutedStyle.Render(string(p.Type)),
			mutedStyle.Render(fmt.Sprintf("nulls %d/%d, %d unique", p.NullCount, p.SampledRows, p.UniqueCount)))
	}
	if len(recommendations) > 0 {
		fmt.Fprintln(r.out)
		for _, rec := range recommendations {
			fmt.Fprintf(r.out, "  • %s\n", rec)
		}
	}
	fmt.Fprintln(r.out)
}

// ImportProgress returns a bar tracking record delivery; wire its update
// callback into Sink.Import.
func ImportProgress(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
