package logging

import (
	"io"
	"log/slog"
	"os"

	"gorm.io/gorm"
)

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(stdoutHandler(os.Stdout)))
}

// AttachDB fans ERROR+ records out to the system_logs table as well as
// stdout. The returned handler must be stopped on shutdown.
func AttachDB(db *gorm.DB) *DBHandler {
	sink := NewDBHandler(db, flushInterval)
	slog.SetDefault(slog.New(NewMultiHandler(stdoutHandler(os.Stdout), sink)))
	return sink
}

func stdoutHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}
