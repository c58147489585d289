// Package logger is a small factory over log/slog: json or text handlers,
// level from config, static service attributes. Components receive the
// resulting *slog.Logger explicitly; there is no package-level logger.
package logger
