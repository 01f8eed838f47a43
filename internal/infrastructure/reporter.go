package infrastructure

import "go.uber.org/zap"

// LogReporter forwards user-facing progress and messages to the logger.
// Progress goes to debug level: it fires for every percentage step of an
// archive traversal.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a new log-backed reporter
func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Progress reports a percentage for the given label
func (r *LogReporter) Progress(percent int, label string) {
	r.logger.Debug("Progress",
		zap.Int("percent", percent),
		zap.String("label", label))
}

// Message reports a human-readable status line
func (r *LogReporter) Message(text string) {
	r.logger.Info(text)
}
