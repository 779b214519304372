package main

import (
	"log/slog"

	"github.com/podsmith/chapters"
)

// slogListener logs operation lifecycle events. Progress is logged at
// debug so a default logger stays quiet during long encodes.
type slogListener struct {
	logger *slog.Logger
}

func newSlogListener(logger *slog.Logger) *slogListener {
	return &slogListener{logger: logger}
}

func (l *slogListener) Started(op chapters.Op) {
	l.logger.Info("operation started", "kind", op.Kind, "path", op.Path, "id", op.ID)
}

func (l *slogListener) Progress(op chapters.Op, percent int) {
	l.logger.Debug("operation progress", "kind", op.Kind, "percent", percent)
}

func (l *slogListener) Complete(op chapters.Op, result chapters.Result) {
	attrs := []any{"kind", op.Kind}
	if result.OutputPath != "" {
		attrs = append(attrs, "output", result.OutputPath)
	}
	l.logger.Info("operation complete", attrs...)
}

func (l *slogListener) Failed(op chapters.Op, err error) {
	l.logger.Error("operation failed", "kind", op.Kind, "error", err)
}
