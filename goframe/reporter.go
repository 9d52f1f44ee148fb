package goframe

import (
	"log/slog"

	"github.com/diwire/core/oracle"
)

// SlogReporter implements oracle.DiagnosticReporter over log/slog, the way
// the rest of this module's ambient logging works: structured records with
// a "loc" attribute carrying the rendered source location, rather than
// formatted strings.
type SlogReporter struct {
	Logger *slog.Logger
}

// NewSlogReporter wraps logger, or slog.Default if logger is nil.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
 logger = slog.Default()
	}
	return &SlogReporter{Logger: logger}
}

func (r *SlogReporter) Error(loc oracle.Location, message string) {
	r.Logger.Error(message, slog.String("loc", locString(loc)))
}

func (r *SlogReporter) Warning(loc oracle.Location, message string) {
	r.Logger.Warn(message, slog.String("loc", locString(loc)))
}

func locString(loc oracle.Location) string {
	if loc == nil {
 return "<unknown>"
	}
	return loc.String()
}
