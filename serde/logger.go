package serde

import "log/slog"

// logger is nil until SetLogger is called; slog.Default() is used meanwhile.
var logger *slog.Logger

// SetLogger allows setting a custom logger
func SetLogger(l *slog.Logger) {
	logger = l
}

func log() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
