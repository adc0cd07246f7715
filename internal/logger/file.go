package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/archsearch/internal/models"
)

// DefaultLogDir is the run log directory relative to the working directory.
var DefaultLogDir = filepath.Join(".archsearch", "logs")

// FileLogger writes run events to timestamped log files and maintains a
// latest.log symlink pointing to the most recent run.
// Colors are never written to files.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in DefaultLogDir at level "info".
func NewFileLogger(runID string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(DefaultLogDir, "info", runID)
}

// NewFileLoggerWithDirAndLevel creates logDir when needed, opens
// run-YYYYMMDD-HHMMSS.log inside it and points latest.log at it.
// runID is written into the log header.
func NewFileLoggerWithDirAndLevel(logDir, logLevel, runID string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", stamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== archsearch run log ===\n")
	if runID != "" {
		logger.writeRunLog(fmt.Sprintf("Run ID: %s\n", runID))
	}
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogDiagnostic logs a recovered failure at WARN level.
func (fl *FileLogger) LogDiagnostic(d models.Diagnostic) {
	fl.LogWarn("skipped " + d.String())
}

// LogSearchStart logs the beginning of a pass at INFO level.
func (fl *FileLogger) LogSearchStart(root, needle string) {
	fl.LogInfo(fmt.Sprintf("Searching %s for %q", root, needle))
}

// LogSearchComplete logs a pass summary followed by one line per result.
func (fl *FileLogger) LogSearchComplete(report *models.SearchReport) {
	if report == nil {
		return
	}
	fl.LogInfo(searchSummary(report))
	for _, r := range report.Results {
		fl.LogDebug(fmt.Sprintf("match %s (%d occurrences)", r.Location, r.OccurrenceCount))
	}
}

// LogExtractionComplete logs an extraction summary at INFO level.
func (fl *FileLogger) LogExtractionComplete(report *models.ExtractionReport) {
	if report == nil {
		return
	}
	fl.LogInfo(extractionSummary(report))
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
	}
}
