// Package export writes run reports as JSON, CSV, SQLite, Markdown or HTML.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/archsearch/internal/filelock"
	"github.com/harrison/archsearch/internal/models"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatSQLite   Format = "sqlite"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats in help order.
var Formats = []Format{FormatJSON, FormatCSV, FormatSQLite, FormatMarkdown, FormatHTML}

// ParseFormat normalizes a format name. "md", "db" and "sqlite3" are accepted aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported format: %s (supported: json, csv, sqlite, markdown, html)", name)
}

// FormatFromPath guesses a format from a file suffix, defaulting to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatJSON
}

// Exporter renders a report into bytes.
type Exporter interface {
	Export(report *models.RunReport) ([]byte, error)
}

// NewExporter returns the in-memory exporter for format. SQLite has no
// in-memory form; use ExportToFile.
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatJSON:
		return &JSONExporter{Pretty: true}, nil
	case FormatCSV:
		return &CSVExporter{}, nil
	case FormatMarkdown:
		return &MarkdownExporter{IncludeTimestamp: true}, nil
	case FormatHTML:
		return &HTMLExporter{}, nil
	case FormatSQLite:
		return nil, fmt.Errorf("sqlite export requires an output file")
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// ExportToString renders report in format.
func ExportToString(report *models.RunReport, format Format) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report cannot be nil")
	}
	exporter, err := NewExporter(format)
	if err != nil {
		return "", err
	}
	data, err := exporter.Export(report)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	return string(data), nil
}

// ExportToFile writes report to path. Text formats replace path atomically;
// SQLite appends the run to the database at path, creating it when missing.
func ExportToFile(ctx context.Context, report *models.RunReport, path string, format Format) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if format == FormatSQLite {
		return WriteSQLite(ctx, report, path)
	}

	exporter, err := NewExporter(format)
	if err != nil {
		return err
	}
	data, err := exporter.Export(report)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return filelock.LockAndWrite(path, data)
}

// LoadJSON reads a report previously written in JSON format.
func LoadJSON(path string) (*models.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &report, nil
}
