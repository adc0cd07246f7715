package search

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/archsearch/internal/extract"
	"github.com/harrison/archsearch/internal/models"
	"github.com/harrison/archsearch/internal/textscan"
)

// Mode selects the passes of a run.
type Mode int

const (
	// ScanOnly searches the root once.
	ScanOnly Mode = iota
	// ExtractThenScan extracts every archive under the root into an output root,
	// then searches the root and the output root in that order.
	ExtractThenScan
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	switch m {
	case ExtractThenScan:
		return "extract_then_scan"
	default:
		return "scan_only"
	}
}

// Request describes one run.
type Request struct {
	Mode       Mode
	Root       string
	Needle     string
	OutputRoot string // required for ExtractThenScan
	ID         string // run id; generated when empty
}

// Run executes req and returns the combined report. Results of the two passes of
// ExtractThenScan are concatenated without deduplication. When the output root
// lies inside the root, the first pass does not descend into it, whichever path
// (symlinked or canonical) the output root is reached by.
//
// Every input is validated before any file is read or written.
func (s *Searcher) Run(ctx context.Context, req Request) (*models.RunReport, error) {
	root, err := validateRoot(req.Root)
	if err != nil {
		return nil, err
	}
	if _, err := s.newScanner(req.Needle); err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	report := &models.RunReport{
		ID:        id,
		Needle:    req.Needle,
		Encoding:  textscan.EncodingName(s.opts.Encoding, textscan.DefaultEncoding),
		StartedAt: time.Now(),
	}

	switch req.Mode {
	case ScanOnly:
		pass, err := s.searchTree(ctx, root, req.Needle, nil)
		if pass != nil {
			report.Searches = append(report.Searches, pass)
		}
		return report, err

	case ExtractThenScan:
		if strings.TrimSpace(req.OutputRoot) == "" {
			return nil, models.InvalidInput("output root is required for extraction")
		}
		out, err := filepath.Abs(req.OutputRoot)
		if err != nil {
			return nil, models.InvalidInput("cannot resolve output root %q: %v", req.OutputRoot, err)
		}

		ext, err := extract.New(s.logger).Extract(ctx, root, out)
		report.Extraction = ext
		if err != nil {
			return report, err
		}

		skip := []string{out}
		if canon, err := extract.Canonicalize(out); err == nil && canon != out {
			skip = append(skip, canon)
		}
		first, err := s.searchTree(ctx, root, req.Needle, skip)
		if first != nil {
			report.Searches = append(report.Searches, first)
		}
		if err != nil {
			return report, err
		}

		second, err := s.searchTree(ctx, out, req.Needle, nil)
		if second != nil {
			report.Searches = append(report.Searches, second)
		}
		return report, err

	default:
		return nil, models.InvalidInput("unknown mode %d", int(req.Mode))
	}
}

// Summary renders a one-line description of a run for logs.
func Summary(r *models.RunReport) string {
	return fmt.Sprintf("run %s: %d results, %d diagnostics across %d passes",
		r.ID, len(r.Results()), len(r.Diagnostics()), len(r.Searches))
}
