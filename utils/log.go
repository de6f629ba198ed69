package utils

import (
	"log/slog"
	"strings"
)

// Logger is an indent-aware wrapper over slog, used by the batch tools to
// visually nest per-file messages under the file they belong to.
type Logger struct {
	indent int
}

func (l *Logger) Indent() { l.indent++ }

func (l *Logger) Outdent() {
	if l.indent > 0 {
		l.indent--
	}
}

func (l *Logger) prefix(msg string) string {
	return strings.Repeat("  ", l.indent) + msg
}

func (l *Logger) Info(msg string)  { slog.Info(l.prefix(msg)) }
func (l *Logger) Warn(msg string)  { slog.Warn(l.prefix(msg)) }
func (l *Logger) Error(msg string) { slog.Error(l.prefix(msg)) }
