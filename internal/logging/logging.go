// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup opens <logDirectory>/<logFileNamePrefix>.log for append and
// installs a slog default logger that fans text output to both that file
// and stdout. The returned closer must be closed at process shutdown.
func Setup(logDirectory, logFileNamePrefix string) (io.Closer, error) {
	path := filepath.Join(logDirectory, logFileNamePrefix+".log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, f), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	return f, nil
}
