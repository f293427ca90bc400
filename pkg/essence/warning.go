package essence

import (
	"context"
	"log/slog"
)

// SlogWarner logs editor warnings through slog.
type SlogWarner struct {
	Logger *slog.Logger
}

// NewSlogWarner returns a Warner writing to logger, or slog.Default when nil.
func NewSlogWarner(logger *slog.Logger) *SlogWarner {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogWarner{Logger: logger}
}

// Warn logs message and text at WARN level.
func (w *SlogWarner) Warn(ctx context.Context, message, text string) {
	w.Logger.WarnContext(ctx, message, "text", text)
}

// noopWarner discards warnings
type noopWarner struct{}

func (noopWarner) Warn(context.Context, string, string) {}

// NewNoopWarner returns a Warner that ignores every warning.
func NewNoopWarner() Warner {
	return noopWarner{}
}
