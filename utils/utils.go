// Package utils holds small helpers shared across the verifier.
package utils

import "go.uber.org/zap"

// Version is injected at build time via ldflags.
var Version = "dev"

// LogError logs an error with context fields, tolerating a nil logger during
// early startup.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if logger == nil {
		return
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)
}
