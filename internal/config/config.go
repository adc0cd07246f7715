package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/harrison/archsearch/internal/classify"
	"github.com/harrison/archsearch/internal/logger"
	"github.com/harrison/archsearch/internal/models"
	"github.com/harrison/archsearch/internal/textscan"
	"golang.org/x/text/encoding"
	"gopkg.in/yaml.v3"
)

// Config represents archsearch configuration options
type Config struct {
	// Encoding is the declared text encoding of scanned files
	Encoding string `yaml:"encoding"`

	// CaptureLines enables capture of matching lines
	CaptureLines bool `yaml:"capture_lines"`

	// CaptureLimit is the number of matching lines kept per result (at most 20)
	CaptureLimit int `yaml:"capture_limit"`

	// TextExtensions are the plain-text suffixes
	TextExtensions []string `yaml:"text_extensions"`

	// SourceExtensions are source-language suffixes scanned as plain text
	SourceExtensions []string `yaml:"source_extensions"`

	// ExcludeDirs are directory names never entered during a walk
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// OutputDir is the default extraction output root
	OutputDir string `yaml:"output_dir"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty = no file log)
	LogDir string `yaml:"log_dir"`

	// MaxLineBytes bounds the length of a single scanned line
	MaxLineBytes int `yaml:"max_line_bytes"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Encoding:         textscan.DefaultEncoding,
		CaptureLines:     true,
		CaptureLimit:     models.MaxSampleLines,
		TextExtensions:   append([]string(nil), classify.DefaultTextExtensions...),
		SourceExtensions: append([]string(nil), classify.DefaultSourceExtensions...),
		OutputDir:        "",
		LogLevel:         "info",
		LogDir:           "",
		MaxLineBytes:     textscan.DefaultMaxLineBytes,
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Presence map: capture_lines: false and explicit empty lists must override defaults
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	present := func(key string) bool {
		_, ok := rawMap[key]
		return ok
	}

	if fileCfg.Encoding != "" {
		cfg.Encoding = fileCfg.Encoding
	}
	if present("capture_lines") {
		cfg.CaptureLines = fileCfg.CaptureLines
	}
	if present("capture_limit") {
		cfg.CaptureLimit = fileCfg.CaptureLimit
	}
	if present("text_extensions") {
		cfg.TextExtensions = fileCfg.TextExtensions
	}
	if present("source_extensions") {
		cfg.SourceExtensions = fileCfg.SourceExtensions
	}
	if present("exclude_dirs") {
		cfg.ExcludeDirs = fileCfg.ExcludeDirs
	}
	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}
	if present("max_line_bytes") {
		cfg.MaxLineBytes = fileCfg.MaxLineBytes
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(encoding *string, captureLines *bool, outputDir *string, logLevel *string, logDir *string) {
	if encoding != nil {
		c.Encoding = *encoding
	}
	if captureLines != nil {
		c.CaptureLines = *captureLines
	}
	if outputDir != nil {
		c.OutputDir = *outputDir
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if !logger.ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.CaptureLimit <= 0 || c.CaptureLimit > models.MaxSampleLines {
		return fmt.Errorf("capture_limit must be between 1 and %d, got %d", models.MaxSampleLines, c.CaptureLimit)
	}

	if c.MaxLineBytes <= 0 {
		return fmt.Errorf("max_line_bytes must be > 0, got %d", c.MaxLineBytes)
	}

	for i, ext := range c.TextExtensions {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("text_extensions[%d] cannot be empty", i)
		}
	}
	for i, ext := range c.SourceExtensions {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("source_extensions[%d] cannot be empty", i)
		}
	}

	if _, err := textscan.LookupEncoding(c.Encoding); err != nil {
		return fmt.Errorf("invalid encoding %q: %w", c.Encoding, err)
	}

	return nil
}

// ClassifierConfig returns the suffix configuration for a Classifier.
// plain disables archive handling.
func (c *Config) ClassifierConfig(plain bool) classify.Config {
	return classify.Config{
		TextExtensions:   append([]string(nil), c.TextExtensions...),
		SourceExtensions: append([]string(nil), c.SourceExtensions...),
		DisableArchives:  plain,
	}
}

// TextEncoding resolves the configured encoding.
func (c *Config) TextEncoding() (encoding.Encoding, error) {
	return textscan.LookupEncoding(c.Encoding)
}
