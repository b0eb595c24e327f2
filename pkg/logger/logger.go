// Package logger provides opinionated slog construction for the siamese
// commands and services.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New builds a *slog.Logger. Without options it writes slog text records at
// Info level to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer = os.Stdout
	switch len(c.writers) {
	case 0:
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	switch {
	case c.json:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source}))
	case c.pretty:
		h := charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
		return slog.New(h)
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source}))
	}
}

// ForCLI returns the logger used by interactive commands: pretty output when
// stdout is a terminal and plain text records otherwise.
func ForCLI(debug bool) *slog.Logger {
	return New(
		WithDebug(debug),
		WithPretty(term.IsTerminal(int(os.Stdout.Fd()))),
	)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
