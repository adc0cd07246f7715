package cmd

import (
	"fmt"
	"strings"

	"github.com/harrison/archsearch/internal/config"
	"github.com/harrison/archsearch/internal/export"
	"github.com/harrison/archsearch/internal/logger"
	"github.com/harrison/archsearch/internal/models"
	"github.com/spf13/cobra"
)

// addConfigFlags registers the flags shared by search and extract.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .archsearch/config.yaml)")
	cmd.Flags().String("log-level", "", "Log verbosity: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run log files (empty = no file log)")
}

// addExportFlags registers --export and --format.
func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().String("export", "", "Write the report to this file")
	cmd.Flags().String("format", "", "Export format: json, csv, sqlite, markdown (or md), html (default: from file suffix)")
}

// loadConfig loads the configuration file and merges changed flags into it.
// Flags that a command does not define are ignored.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, path, err := config.Load(configPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var encodingPtr *string
	if changed(cmd, "encoding") {
		v, _ := cmd.Flags().GetString("encoding")
		encodingPtr = &v
	}

	var captureLinesPtr *bool
	if changed(cmd, "no-lines") {
		noLines, _ := cmd.Flags().GetBool("no-lines")
		capture := !noLines
		captureLinesPtr = &capture
	}

	var outputDirPtr *string
	if changed(cmd, "extract-to") {
		v, _ := cmd.Flags().GetString("extract-to")
		outputDirPtr = &v
	}

	var logLevelPtr *string
	if changed(cmd, "log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}

	var logDirPtr *string
	if changed(cmd, "log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &v
	}

	cfg.MergeWithFlags(encodingPtr, captureLinesPtr, outputDirPtr, logLevelPtr, logDirPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// runLogger is the console logger, plus a file logger when log_dir is set.
type runLogger struct {
	*logger.MultiLogger
	file *logger.FileLogger
}

// newRunLogger writes console output to the command's stderr.
func newRunLogger(cmd *cobra.Command, cfg *config.Config, runID string) (*runLogger, error) {
	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	rl := &runLogger{}

	if cfg.LogDir != "" {
		fl, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		rl.file = fl
	}

	if rl.file != nil {
		rl.MultiLogger = logger.NewMultiLogger(console, rl.file)
	} else {
		rl.MultiLogger = logger.NewMultiLogger(console)
	}
	return rl, nil
}

// Close closes the file logger, if any.
func (rl *runLogger) Close() error {
	if rl.file == nil {
		return nil
	}
	return rl.file.Close()
}

// writeExport writes report when --export is set.
func writeExport(cmd *cobra.Command, report *models.RunReport, log *runLogger) error {
	path, _ := cmd.Flags().GetString("export")
	if strings.TrimSpace(path) == "" {
		return nil
	}

	format, err := exportFormat(cmd, path)
	if err != nil {
		return err
	}

	if err := export.ExportToFile(cmd.Context(), report, path, format); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}
	log.LogInfo(fmt.Sprintf("Report exported to %s (%s)", path, format))
	return nil
}

func exportFormat(cmd *cobra.Command, path string) (export.Format, error) {
	name, _ := cmd.Flags().GetString("format")
	if name == "" {
		return export.FormatFromPath(path), nil
	}
	return export.ParseFormat(name)
}
