// Package extract decodes gzip files and zip archives under a source tree into a
// mirrored output tree, rejecting any archive entry that would escape its
// extraction directory.
//
// Layout of the output root:
//
//	<output>/zip/<sanitized zip filename>/<entry path>
//	<output>/gz/<gzip filename without .gz>
//
// Each zip archive is extracted into a staging directory and swapped into place
// only when every entry was written, so a corrupt or malicious archive never
// leaves partial output behind and a re-run replaces stale content.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/archsearch/internal/archive"
	"github.com/harrison/archsearch/internal/classify"
	"github.com/harrison/archsearch/internal/filelock"
	"github.com/harrison/archsearch/internal/fileutil"
	"github.com/harrison/archsearch/internal/logger"
	"github.com/harrison/archsearch/internal/models"
)

// Directory names below the output root.
const (
	ZipDir = "zip"
	GzDir  = "gz"
)

// Logger receives extraction events.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogDiagnostic(d models.Diagnostic)
	LogExtractionComplete(report *models.ExtractionReport)
}

// Extractor writes the decoded content of archives to disk.
type Extractor struct {
	logger Logger
}

// New creates an Extractor. A nil logger discards events.
func New(log Logger) *Extractor {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Extractor{logger: log}
}

// run holds the state of one Extract call.
type run struct {
	report  *models.ExtractionReport
	outRoot string
	seen    map[string]bool
}

// Extract walks sourceRoot and decodes every .zip and .gz file into outputRoot.
// Only an invalid sourceRoot or outputRoot, a busy output lock, or context
// cancellation are returned as errors. Per-archive failures are recorded in the
// report and extraction continues with the next file.
func (x *Extractor) Extract(ctx context.Context, sourceRoot, outputRoot string) (*models.ExtractionReport, error) {
	start := time.Now()

	srcAbs, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, models.InvalidInput("cannot resolve source root %q: %v", sourceRoot, err)
	}
	info, err := os.Stat(srcAbs)
	if err != nil {
		return nil, models.InvalidInput("source root %s does not exist", srcAbs)
	}
	if !info.IsDir() {
		return nil, models.InvalidInput("source root %s is not a directory", srcAbs)
	}
	if outputRoot == "" {
		return nil, models.InvalidInput("output root must not be empty")
	}

	outAbs, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, models.InvalidInput("cannot resolve output root %q: %v", outputRoot, err)
	}
	if err := os.MkdirAll(outAbs, 0755); err != nil {
		return nil, models.NewError(models.KindFilesystem, "cannot create output root", err).WithPath(outAbs)
	}
	outCanon, err := Canonicalize(outAbs)
	if err != nil {
		return nil, models.NewError(models.KindFilesystem, "cannot resolve output root", err).WithPath(outAbs)
	}
	srcCanon, err := Canonicalize(srcAbs)
	if err != nil {
		return nil, models.NewError(models.KindFilesystem, "cannot resolve source root", err).WithPath(srcAbs)
	}
	if isWithin(srcCanon, outCanon) {
		return nil, models.InvalidInput("source root %s lies inside output root %s", srcAbs, outAbs)
	}

	lock, err := filelock.Acquire(outCanon)
	if err != nil {
		return nil, models.NewError(models.KindFilesystem, "output root is in use", err).WithPath(outAbs)
	}
	defer lock.Unlock()

	r := &run{
		report: &models.ExtractionReport{
			SourceRoot: srcAbs,
			OutputRoot: outAbs,
		},
		outRoot: outCanon,
		seen:    make(map[string]bool),
	}
	x.logger.LogInfo(fmt.Sprintf("Extracting archives from %s into %s", srcAbs, outAbs))

	walkOpts := fileutil.WalkOptions{SkipPaths: []string{outAbs, outCanon}}
	for path, walkErr := range fileutil.Walk(srcAbs, walkOpts) {
		if err := ctx.Err(); err != nil {
			r.report.Duration = time.Since(start)
			return r.report, err
		}
		if walkErr != nil {
			x.record(r, path, walkErr)
			continue
		}

		switch classify.Container(path) {
		case classify.Zip:
			written, err := x.extractZip(r, path)
			if err != nil {
				x.record(r, path, err)
				continue
			}
			r.report.ZipArchives++
			r.report.FilesWritten += written
		case classify.Gzip:
			if err := x.extractGzip(r, path); err != nil {
				x.record(r, path, err)
				continue
			}
			r.report.GzipFiles++
			r.report.FilesWritten++
		}
	}

	r.report.Duration = time.Since(start)
	x.logger.LogExtractionComplete(r.report)
	return r.report, nil
}

func (x *Extractor) record(r *run, path string, err error) {
	d := models.NewDiagnostic(path, err)
	r.report.Diagnostics = append(r.report.Diagnostics, d)
	x.logger.LogDiagnostic(d)
}

// extractZip extracts one archive and returns the number of files written.
// Every entry name is validated before anything is written.
func (x *Extractor) extractZip(r *run, zipPath string) (int, error) {
	name := SanitizeName(filepath.Base(zipPath))
	zipRoot := filepath.Join(r.outRoot, ZipDir)
	dest := filepath.Join(zipRoot, name)

	z, err := archive.OpenZip(zipPath, archive.ZipOptions{IncludeDirs: true})
	if err != nil {
		return 0, err
	}
	defer z.Close()

	for _, entry := range z.Names() {
		if _, err := SafeJoin(dest, entry); err != nil {
			return 0, withPath(err, zipPath)
		}
	}

	if err := os.MkdirAll(zipRoot, 0755); err != nil {
		return 0, models.NewError(models.KindFilesystem, "cannot create zip output directory", err).WithPath(zipRoot)
	}
	staging, err := os.MkdirTemp(zipRoot, ".tmp-"+name+"-")
	if err != nil {
		return 0, models.NewError(models.KindFilesystem, "cannot create staging directory", err).WithPath(zipRoot)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()
	if err := os.Chmod(staging, 0755); err != nil {
		return 0, models.NewError(models.KindFilesystem, "cannot prepare staging directory", err).WithPath(staging)
	}

	written := 0
	for {
		entry, err := z.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		target, err := SafeJoin(staging, entry.Name)
		if err != nil {
			return 0, withPath(err, zipPath)
		}

		if entry.IsDir {
			if err := os.MkdirAll(target, 0755); err != nil {
				return 0, entryFSError("cannot create directory", err, zipPath, entry.Name)
			}
			continue
		}
		if target == staging {
			return 0, models.NewError(models.KindPathTraversal, "entry has no file name", nil).
				WithPath(zipPath).WithEntry(entry.Name)
		}

		if err := writeEntry(target, entry); err != nil {
			if _, ok := models.AsError(err); ok {
				return 0, err
			}
			return 0, entryFSError("cannot write entry", err, zipPath, entry.Name)
		}
		written++
	}

	if err := commitDir(staging, dest, r.seen[name]); err != nil {
		return 0, models.NewError(models.KindFilesystem, "cannot move extracted archive into place", err).WithPath(zipPath)
	}
	committed = true
	r.seen[name] = true

	x.logger.LogInfo(fmt.Sprintf("extracted %d entries from %s into %s", written, zipPath, dest))
	return written, nil
}

// writeEntry creates target, truncating any existing file, and copies the entry
// stream into it. Decompression failures keep their classification.
func writeEntry(target string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// commitDir moves staging to dest. A first commit replaces dest entirely;
// later commits of an archive with the same sanitized name in the same run are
// merged into dest, later files overwriting earlier ones.
func commitDir(staging, dest string, merge bool) error {
	if !merge {
		if err := removeIfExists(dest); err != nil {
			return err
		}
		return os.Rename(staging, dest)
	}
	if err := mergeTree(staging, dest); err != nil {
		return err
	}
	return os.RemoveAll(staging)
}

func mergeTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if info, err := os.Lstat(target); err == nil && !info.IsDir() {
				if err := os.Remove(target); err != nil {
					return err
				}
			}
			return os.MkdirAll(target, 0755)
		}
		if info, err := os.Lstat(target); err == nil && info.IsDir() {
			if err := os.RemoveAll(target); err != nil {
				return err
			}
		}
		return os.Rename(path, target)
	})
}

// extractGzip decompresses one .gz file to <out>/gz/<name without .gz>.
func (x *Extractor) extractGzip(r *run, gzPath string) error {
	gzRoot := filepath.Join(r.outRoot, GzDir)
	name := archive.GzipDisplayName(gzPath)

	target, err := SafeJoin(gzRoot, name)
	if err != nil {
		return withPath(err, gzPath)
	}
	if target == gzRoot {
		return models.NewError(models.KindFilesystem, "gzip file has no name once .gz is removed", nil).WithPath(gzPath)
	}

	g, err := archive.OpenGzip(gzPath)
	if err != nil {
		return err
	}
	defer g.Close()

	if info, err := os.Lstat(target); err == nil && info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return models.NewError(models.KindFilesystem, "cannot replace directory", err).WithPath(target)
		}
	}

	if _, err := filelock.AtomicWriteFrom(target, g, 0644); err != nil {
		if _, ok := models.AsError(err); ok {
			return err
		}
		return models.NewError(models.KindFilesystem, "cannot write decompressed file", err).WithPath(gzPath)
	}

	x.logger.LogInfo(fmt.Sprintf("decompressed %s into %s", gzPath, target))
	return nil
}

func withPath(err error, path string) error {
	var e *models.Error
	if errors.As(err, &e) {
		return e.WithPath(path)
	}
	return err
}

func entryFSError(msg string, err error, zipPath, entry string) error {
	return models.NewError(models.KindFilesystem, msg, err).WithPath(zipPath).WithEntry(entry)
}
