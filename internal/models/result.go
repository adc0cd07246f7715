package models

import (
	"fmt"
	"time"
)

// MaxSampleLines is the upper bound on captured sample lines per result.
const MaxSampleLines = 20

// EntrySeparator joins a zip path and an entry name in SearchResult.Location.
const EntrySeparator = " :: "

// DisplaySeparator joins a zip filename and an entry name in SearchResult.DisplayName.
const DisplaySeparator = "::"

// SampleLine is one captured matching line.
type SampleLine struct {
	Number int    `json:"line_number"` // 1-indexed
	Text   string `json:"text"`        // Line text with surrounding whitespace trimmed
}

// String renders the line the way the console output shows it: "L<n>: <text>".
func (s SampleLine) String() string {
	return fmt.Sprintf("L%d: %s", s.Number, s.Text)
}

// SearchResult describes one matched file or matched zip entry.
// A SearchResult only exists when OccurrenceCount > 0.
type SearchResult struct {
	Location        string       `json:"location"`         // Absolute path, or "<zip> :: <entry>" for zip entries
	Folder          string       `json:"folder"`           // Directory holding the real file on disk
	DisplayName     string       `json:"display_name"`     // Bare name, name without .gz, or "<zip>::<entry>"
	OccurrenceCount int          `json:"occurrence_count"` // Non-overlapping needle occurrences across all lines
	SampleLines     []SampleLine `json:"sample_lines"`     // Ascending by line number, at most MaxSampleLines
}

// Diagnostic records a recovered per-file, per-entry or per-archive failure.
type Diagnostic struct {
	Path    string    `json:"path"`
	Entry   string    `json:"entry,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// String renders the diagnostic for log output.
func (d Diagnostic) String() string {
	target := d.Path
	if d.Entry != "" {
		target = d.Path + EntrySeparator + d.Entry
	}
	return fmt.Sprintf("%s [%s]: %s", target, d.Kind, d.Message)
}

// NewDiagnostic builds a Diagnostic from a recovered error.
// Path and entry information carried by a typed *Error take precedence over path.
func NewDiagnostic(path string, err error) Diagnostic {
	d := Diagnostic{
		Path:    path,
		Kind:    KindOf(err),
		Message: err.Error(),
	}
	if e, ok := AsError(err); ok {
		if e.Path != "" {
			d.Path = e.Path
		}
		d.Entry = e.Entry
		d.Message = e.Detail()
	}
	return d
}

// SearchReport is the outcome of scanning one directory tree.
type SearchReport struct {
	Root         string         `json:"root"`
	Results      []SearchResult `json:"results"`
	Diagnostics  []Diagnostic   `json:"diagnostics"`
	FilesVisited int            `json:"files_visited"`
	FilesSkipped int            `json:"files_skipped"`
	Duration     time.Duration  `json:"duration"`
}

// ExtractionReport is the outcome of one extraction pass.
type ExtractionReport struct {
	SourceRoot   string        `json:"source_root"`
	OutputRoot   string        `json:"output_root"`
	ZipArchives  int           `json:"zip_archives"`
	GzipFiles    int           `json:"gzip_files"`
	FilesWritten int           `json:"files_written"`
	Diagnostics  []Diagnostic  `json:"diagnostics"`
	Duration     time.Duration `json:"duration"`
}

// RunReport combines every pass of one invocation.
// Results are the concatenation of the per-tree results in pass order, without deduplication.
type RunReport struct {
	ID         string            `json:"id"`
	Needle     string            `json:"needle"`
	Encoding   string            `json:"encoding"`
	StartedAt  time.Time         `json:"started_at"`
	Extraction *ExtractionReport `json:"extraction,omitempty"`
	Searches   []*SearchReport   `json:"searches"`
}

// Results returns the concatenated results of every search pass.
func (r *RunReport) Results() []SearchResult {
	var all []SearchResult
	for _, s := range r.Searches {
		all = append(all, s.Results...)
	}
	return all
}

// Diagnostics returns every diagnostic recorded by the run, extraction first.
func (r *RunReport) Diagnostics() []Diagnostic {
	var all []Diagnostic
	if r.Extraction != nil {
		all = append(all, r.Extraction.Diagnostics...)
	}
	for _, s := range r.Searches {
		all = append(all, s.Diagnostics...)
	}
	return all
}
