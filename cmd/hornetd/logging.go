package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// newLogger builds the one *slog.Logger passed to sshfront (and from
// there to each shell) and to the session consumer: a text handler when
// stdout is a TTY (operator at a terminal), JSON otherwise (piped to a
// log collector).
func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
