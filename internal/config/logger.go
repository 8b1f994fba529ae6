package config

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the process-wide logger. LOG_DEVEL=true switches to the
// human-readable development encoder.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_DEVEL") == "true" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
