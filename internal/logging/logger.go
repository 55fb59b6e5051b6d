package logging

import (
	"io"
	"log/slog"
	"os"
)

// New builds the service's JSON logger at the given level. A nil writer logs to stdout.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}
