package server

import (
	"os"

	"go.uber.org/zap"
)

// AppLogger is the process-wide structured logger for server mode. It is
// assigned once at startup, before any request is served.
var AppLogger *zap.SugaredLogger

// NewLogger builds the server logger. Release mode emits JSON to stdout;
// anything else gets the human-readable development encoder.
func NewLogger() *zap.SugaredLogger {
	var cfg zap.Config
	if os.Getenv("GIN_MODE") == "release" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		// Logging must not take the server down before it starts.
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
