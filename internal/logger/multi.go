package logger

import "github.com/harrison/archsearch/internal/models"

// Sink is the set of events every logger in this package accepts.
type Sink interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogDiagnostic(d models.Diagnostic)
	LogSearchStart(root, needle string)
	LogSearchComplete(report *models.SearchReport)
	LogExtractionComplete(report *models.ExtractionReport)
}

// MultiLogger forwards every event to each of its sinks in order.
type MultiLogger struct {
	sinks []Sink
}

// NewMultiLogger creates a MultiLogger. Nil sinks are dropped.
func NewMultiLogger(sinks ...Sink) *MultiLogger {
	m := &MultiLogger{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(message string) {
	for _, s := range m.sinks {
		s.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, s := range m.sinks {
		s.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, s := range m.sinks {
		s.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, s := range m.sinks {
		s.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, s := range m.sinks {
		s.LogError(message)
	}
}

func (m *MultiLogger) LogDiagnostic(d models.Diagnostic) {
	for _, s := range m.sinks {
		s.LogDiagnostic(d)
	}
}

func (m *MultiLogger) LogSearchStart(root, needle string) {
	for _, s := range m.sinks {
		s.LogSearchStart(root, needle)
	}
}

func (m *MultiLogger) LogSearchComplete(report *models.SearchReport) {
	for _, s := range m.sinks {
		s.LogSearchComplete(report)
	}
}

func (m *MultiLogger) LogExtractionComplete(report *models.ExtractionReport) {
	for _, s := range m.sinks {
		s.LogExtractionComplete(report)
	}
}
