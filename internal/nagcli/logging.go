package nagcli

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a slog.Logger writing to path with automatic
// rotation (size-capped, a bounded number of compressed backups kept), via
// the same lumberjack-backed rotation the rest of the pack uses for
// long-running CLI/daemon processes. An empty path returns slog.Default()
// with no file and no rotation — callers that only want stderr logging pass
// "" as path.
func NewFileLogger(path string) *slog.Logger {
	if path == "" {
		return slog.Default()
	}
	var w io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return slog.New(slog.NewTextHandler(w, nil))
}
