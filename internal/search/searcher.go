// Package search walks a directory tree and counts needle occurrences in plain
// text files, gzip files and zip entries.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/archsearch/internal/archive"
	"github.com/harrison/archsearch/internal/classify"
	"github.com/harrison/archsearch/internal/fileutil"
	"github.com/harrison/archsearch/internal/logger"
	"github.com/harrison/archsearch/internal/models"
	"github.com/harrison/archsearch/internal/textscan"
	"golang.org/x/text/encoding"
)

// Logger receives search and extraction events.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogDiagnostic(d models.Diagnostic)
	LogSearchStart(root, needle string)
	LogSearchComplete(report *models.SearchReport)
	LogExtractionComplete(report *models.ExtractionReport)
}

// Options configures a Searcher. Zero values select the defaults.
type Options struct {
	// Classifier decides file treatments (default classify.Default()).
	Classifier   *classify.Classifier
	// Encoding is the declared text encoding (default UTF-8).
	Encoding     encoding.Encoding
	CaptureLines bool
	CaptureLimit int
	MaxLineBytes int
	// ExcludeDirs lists directory base names that are never entered.
	ExcludeDirs  []string
	Logger       Logger
}

// Searcher scans directory trees. It holds no per-run state and may be reused.
type Searcher struct {
	classifier *classify.Classifier
	opts       Options
	logger     Logger
}

// New creates a Searcher from opts.
func New(opts Options) *Searcher {
	s := &Searcher{
		classifier: opts.Classifier,
		opts:       opts,
		logger:     opts.Logger,
	}
	if s.classifier == nil {
		s.classifier = classify.Default()
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	return s
}

// SearchTree scans every regular file under root for needle.
//
// root must be an existing directory and needle must contain a non-space
// character; otherwise an InvalidInput error is returned before any file is
// read. The needle is matched exactly as given, including surrounding spaces.
// Per-file failures never abort the walk: they are recorded as diagnostics and
// the file contributes no result. Only cancellation of ctx stops the walk early,
// in which case the partial report is returned with ctx.Err().
func (s *Searcher) SearchTree(ctx context.Context, root, needle string) (*models.SearchReport, error) {
	return s.searchTree(ctx, root, needle, nil)
}

func (s *Searcher) searchTree(ctx context.Context, root, needle string, skip []string) (*models.SearchReport, error) {
	start := time.Now()

	abs, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	scanner, err := s.newScanner(needle)
	if err != nil {
		return nil, err
	}

	report := &models.SearchReport{
		Root:        abs,
		Results:     []models.SearchResult{},
		Diagnostics: []models.Diagnostic{},
	}
	s.logger.LogSearchStart(abs, needle)

	walkOpts := fileutil.WalkOptions{SkipPaths: skip, ExcludeDirs: s.opts.ExcludeDirs}
	for path, walkErr := range fileutil.Walk(abs, walkOpts) {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		if walkErr != nil {
			s.record(report, path, walkErr)
			continue
		}

		report.FilesVisited++
		switch s.classifier.Classify(path) {
		case classify.PlainText:
			s.scanPlain(report, scanner, path)
		case classify.Gzip:
			s.scanGzip(report, scanner, path)
		case classify.Zip:
			s.scanZip(report, scanner, path)
		default:
			report.FilesSkipped++
		}
	}

	report.Duration = time.Since(start)
	s.logger.LogSearchComplete(report)
	return report, nil
}

func validateRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", models.InvalidInput("root directory must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", models.InvalidInput("cannot resolve root %q: %v", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", models.InvalidInput("root %s does not exist", abs)
	}
	if !info.IsDir() {
		return "", models.InvalidInput("root %s is not a directory", abs)
	}
	return abs, nil
}

func (s *Searcher) newScanner(needle string) (*textscan.Scanner, error) {
	if strings.TrimSpace(needle) == "" {
		return nil, models.InvalidInput("search string must not be blank")
	}
	return textscan.New(textscan.Options{
		Needle:       needle,
		Encoding:     s.opts.Encoding,
		CaptureLines: s.opts.CaptureLines,
		CaptureLimit: s.opts.CaptureLimit,
		MaxLineBytes: s.opts.MaxLineBytes,
	})
}

func (s *Searcher) record(report *models.SearchReport, path string, err error) {
	d := models.NewDiagnostic(path, err)
	report.Diagnostics = append(report.Diagnostics, d)
	s.logger.LogDiagnostic(d)
}

func (s *Searcher) emit(report *models.SearchReport, r models.SearchResult) {
	report.Results = append(report.Results, r)
	s.logger.LogDebug(fmt.Sprintf("%d occurrences in %s", r.OccurrenceCount, r.Location))
}

func (s *Searcher) scanPlain(report *models.SearchReport, scanner *textscan.Scanner, path string) {
	f, err := os.Open(path)
	if err != nil {
		s.record(report, path, models.NewError(models.KindFilesystem, "open failed", err).WithPath(path))
		return
	}
	defer f.Close()

	out, err := scanner.Scan(f)
	if err != nil {
		s.record(report, path, withPath(err, path))
		return
	}
	if out.OccurrenceCount == 0 {
		return
	}
	s.emit(report, models.SearchResult{
		Location:        path,
		Folder:          filepath.Dir(path),
		DisplayName:     filepath.Base(path),
		OccurrenceCount: out.OccurrenceCount,
		SampleLines:     out.SampleLines,
	})
}

func (s *Searcher) scanGzip(report *models.SearchReport, scanner *textscan.Scanner, path string) {
	g, err := archive.OpenGzip(path)
	if err != nil {
		s.record(report, path, err)
		return
	}
	defer g.Close()

	out, err := scanner.Scan(g)
	if err != nil {
		s.record(report, path, withPath(err, path))
		return
	}
	if out.OccurrenceCount == 0 {
		return
	}
	s.emit(report, models.SearchResult{
		Location:        path,
		Folder:          filepath.Dir(path),
		DisplayName:     g.DisplayName,
		OccurrenceCount: out.OccurrenceCount,
		SampleLines:     out.SampleLines,
	})
}

// scanZip emits one result per matching text entry. A failing entry is recorded
// and the remaining entries are still scanned.
func (s *Searcher) scanZip(report *models.SearchReport, scanner *textscan.Scanner, path string) {
	z, err := archive.OpenZip(path, archive.ZipOptions{Accept: s.classifier.IsText})
	if err != nil {
		s.record(report, path, err)
		return
	}
	defer z.Close()

	zipName := filepath.Base(path)
	for {
		entry, err := z.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.record(report, path, err)
			continue
		}

		out, err := scanner.Scan(entry)
		if err != nil {
			s.record(report, path, withEntry(err, path, entry.Name))
			continue
		}
		if out.OccurrenceCount == 0 {
			continue
		}
		s.emit(report, models.SearchResult{
			Location:        path + models.EntrySeparator + entry.Name,
			Folder:          filepath.Dir(path),
			DisplayName:     zipName + models.DisplaySeparator + entry.Name,
			OccurrenceCount: out.OccurrenceCount,
			SampleLines:     out.SampleLines,
		})
	}
}

func withPath(err error, path string) error {
	var e *models.Error
	if errors.As(err, &e) && e.Path == "" {
		return e.WithPath(path)
	}
	return err
}

func withEntry(err error, path, entry string) error {
	var e *models.Error
	if errors.As(err, &e) {
		if e.Path == "" {
			e = e.WithPath(path)
		}
		if e.Entry == "" {
			e = e.WithEntry(entry)
		}
		return e
	}
	return err
}
