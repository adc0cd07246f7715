package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/archsearch/internal/models"
)

// MaxListedDiagnostics bounds the number of diagnostics listed in a warning.
const MaxListedDiagnostics = 50

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Affected files or entries (optional)
	Omitted    int      // Items not listed (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning, in yellow when colored is set
func (w Warning) Display(out io.Writer, colored bool) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Items) > 0 {
		b.WriteString("    ")
		if len(w.Items)+w.Omitted == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}

		for i, item := range w.Items {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, item))
		}
		if w.Omitted > 0 {
			b.WriteString(fmt.Sprintf("      ... and %d more\n", w.Omitted))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	fmt.Fprint(out, paint(colored, yellow, b.String()))
}

// WarnDiagnostics creates a warning listing recovered failures
func WarnDiagnostics(diags []models.Diagnostic) Warning {
	w := Warning{
		Message:    "These inputs contributed no results.",
		Suggestion: "Re-run with --log-level debug or --log-dir to keep a full log",
	}
	if len(diags) == 1 {
		w.Title = "1 input could not be read"
	} else {
		w.Title = fmt.Sprintf("%d inputs could not be read", len(diags))
	}

	for i, d := range diags {
		if i == MaxListedDiagnostics {
			w.Omitted = len(diags) - i
			break
		}
		w.Items = append(w.Items, d.String())
	}
	return w
}
