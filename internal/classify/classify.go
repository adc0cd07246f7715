// Package classify maps filenames to the treatment their bytes receive.
package classify

import (
	"path/filepath"
	"strings"
)

// Treatment is the classifier's verdict on how a file is read.
type Treatment int

const (
	// Skip files are neither scanned nor extracted.
	Skip Treatment = iota
	// PlainText files are scanned directly.
	PlainText
	// Gzip files are decompressed as one logical file.
	Gzip
	// Zip files are read entry by entry.
	Zip
)

// String returns the string representation of Treatment.
func (t Treatment) String() string {
	switch t {
	case PlainText:
		return "plain_text"
	case Gzip:
		return "gzip"
	case Zip:
		return "zip"
	default:
		return "skip"
	}
}

// GzipExtension and ZipExtension are the container suffixes.
const (
	GzipExtension = ".gz"
	ZipExtension  = ".zip"
)

// DefaultTextExtensions are the recognized plain-text suffixes.
var DefaultTextExtensions = []string{
	".txt", ".log", ".csv", ".json", ".xml", ".yml", ".yaml",
	".md", ".sql", ".properties",
}

// DefaultSourceExtensions are the recognized source-language suffixes.
var DefaultSourceExtensions = []string{".java"}

// Config is the immutable suffix configuration of a Classifier.
type Config struct {
	TextExtensions   []string // Plain-text suffixes, e.g. ".txt"
	SourceExtensions []string // Source-language suffixes treated as plain text
	DisableArchives  bool     // When set, .gz and .zip are classified as Skip
}

// DefaultConfig returns the built-in suffix configuration.
func DefaultConfig() Config {
	return Config{
		TextExtensions:   append([]string(nil), DefaultTextExtensions...),
		SourceExtensions: append([]string(nil), DefaultSourceExtensions...),
	}
}

// Classifier decides a Treatment from a filename suffix.
// It is safe for concurrent use.
type Classifier struct {
	text     []string
	archives bool
}

// New builds a Classifier from cfg. Suffixes are normalized to lowercase with a leading dot.
func New(cfg Config) *Classifier {
	c := &Classifier{archives: !cfg.DisableArchives}
	seen := make(map[string]bool)
	for _, list := range [][]string{cfg.TextExtensions, cfg.SourceExtensions} {
		for _, ext := range list {
			ext = normalizeExtension(ext)
			if ext == "" || seen[ext] {
				continue
			}
			seen[ext] = true
			c.text = append(c.text, ext)
		}
	}
	return c
}

// Default returns a Classifier using DefaultConfig.
func Default() *Classifier {
	return New(DefaultConfig())
}

// Classify returns the treatment for name. Only the final path element is inspected
// and matching is case-insensitive.
func (c *Classifier) Classify(name string) Treatment {
	lower := strings.ToLower(filepath.Base(filepath.FromSlash(name)))
	if c.IsText(lower) {
		return PlainText
	}
	if !c.archives {
		return Skip
	}
	switch {
	case strings.HasSuffix(lower, GzipExtension):
		return Gzip
	case strings.HasSuffix(lower, ZipExtension):
		return Zip
	}
	return Skip
}

// Container returns Gzip or Zip for archive suffixes and Skip otherwise, ignoring
// the text configuration. The extractor uses it to find archives to decode.
func Container(name string) Treatment {
	lower := strings.ToLower(filepath.Base(filepath.FromSlash(name)))
	switch {
	case strings.HasSuffix(lower, GzipExtension):
		return Gzip
	case strings.HasSuffix(lower, ZipExtension):
		return Zip
	}
	return Skip
}

// IsText reports whether name carries a recognized plain-text or source suffix.
// Zip entry names are filtered with this rule.
func (c *Classifier) IsText(name string) bool {
	lower := strings.ToLower(name)
	if i := strings.LastIndexAny(lower, `/\`); i >= 0 {
		lower = lower[i+1:]
	}
	for _, ext := range c.text {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// TrimExtension removes a case-insensitive suffix from name when present.
func TrimExtension(name, ext string) string {
	if len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		return name[:len(name)-len(ext)]
	}
	return name
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
