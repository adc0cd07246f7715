package display

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/archsearch/internal/models"
	"github.com/mattn/go-isatty"
)

const (
	cyan   = color.FgCyan
	green  = color.FgGreen
	bold   = color.Bold
	faint  = color.Faint
	yellow = color.FgYellow
)

// paint renders s with attr when colored is set, independent of color.NoColor.
func paint(colored bool, attr color.Attribute, s string) string {
	if !colored {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

// Printer writes human-readable run output.
type Printer struct {
	w       io.Writer
	colored bool
}

// NewPrinter creates a Printer that colors output only when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return NewPrinterWithColor(w, IsTerminal(w))
}

// NewPrinterWithColor creates a Printer with an explicit color choice.
func NewPrinterWithColor(w io.Writer, colored bool) *Printer {
	return &Printer{w: w, colored: colored}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Result prints one result block.
func (p *Printer) Result(r models.SearchResult) {
	fmt.Fprintf(p.w, "%s %s\n", paint(p.colored, bold, "File:"), r.Location)
	fmt.Fprintf(p.w, "Folder: %s\n", r.Folder)
	fmt.Fprintf(p.w, "Name: %s\n", r.DisplayName)
	fmt.Fprintf(p.w, "Occurrences: %s\n", paint(p.colored, green, fmt.Sprint(r.OccurrenceCount)))
	if len(r.SampleLines) > 0 {
		fmt.Fprintln(p.w, "Lines:")
		for _, line := range r.SampleLines {
			fmt.Fprintf(p.w, "  %s\n", line)
		}
	}
	fmt.Fprintln(p.w)
}

// Results prints every result, or the not-found message when there are none.
func (p *Printer) Results(needle string, results []models.SearchResult) {
	if len(results) == 0 {
		p.NotFound(needle)
		return
	}
	for _, r := range results {
		p.Result(r)
	}
}

// NotFound prints the message shown when a run produced no results.
func (p *Printer) NotFound(needle string) {
	fmt.Fprintln(p.w, paint(p.colored, yellow, fmt.Sprintf("%q was not found in any file.", needle)))
}

// Diagnostics prints a warning block listing recovered failures.
func (p *Printer) Diagnostics(diags []models.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	WarnDiagnostics(diags).Display(p.w, p.colored)
}

// Extraction prints the extraction summary.
func (p *Printer) Extraction(r *models.ExtractionReport) {
	if r == nil {
		return
	}
	fmt.Fprintf(p.w, "Extracted %d zip %s and %d gzip %s into %s (%d files written)\n",
		r.ZipArchives, plural(r.ZipArchives, "archive", "archives"),
		r.GzipFiles, plural(r.GzipFiles, "file", "files"),
		r.OutputRoot, r.FilesWritten)
}

// Run prints a complete run: the extraction summary, one header and the
// results of each pass, the not-found message when no pass matched, the
// diagnostics and a closing summary line.
func (p *Printer) Run(r *models.RunReport) {
	p.Extraction(r.Extraction)

	total := 0
	passes := NewPassIndicator(p.w, len(r.Searches), p.colored)
	for _, s := range r.Searches {
		passes.Step(s.Root, len(s.Results))
		for _, res := range s.Results {
			p.Result(res)
		}
		total += len(s.Results)
	}
	if total == 0 {
		p.NotFound(r.Needle)
	}

	diags := r.Diagnostics()
	p.Diagnostics(diags)

	var elapsed time.Duration
	for _, s := range r.Searches {
		elapsed += s.Duration
	}
	if r.Extraction != nil {
		elapsed += r.Extraction.Duration
	}
	fmt.Fprintln(p.w, paint(p.colored, faint, fmt.Sprintf("%d %s, %d %s, %s",
		total, plural(total, "result", "results"),
		len(diags), plural(len(diags), "diagnostic", "diagnostics"),
		elapsed.Round(time.Millisecond))))
}
