package logging

import (
	"testing"

	"github.com/quillfeed/quillfeed/pkg/config"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{
			name: "json format",
			cfg:  config.LoggingConfig{Level: "INFO", Format: "json"},
		},
		{
			name: "text format",
			cfg:  config.LoggingConfig{Level: "DEBUG", Format: "text"},
		},
		{
			name: "invalid level falls back to info",
			cfg:  config.LoggingConfig{Level: "bogus", Format: "json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldLogger := Logger
			defer func() { Logger = oldLogger }()

			if err := InitLogger(&tt.cfg); err != nil {
				t.Fatalf("Failed to initialize logger: %v", err)
			}

			if Logger == nil {
				t.Fatal("Expected logger to be set")
			}
		})
	}
}

func TestGetLoggerFallback(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	Logger = nil
	if GetLogger() == nil {
		t.Fatal("GetLogger() should never return nil")
	}
}
