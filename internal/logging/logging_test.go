package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/wesleyorama2/routemeter/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		enabled zapcore.Level
		wantErr bool
	}{
		{name: "default level", cfg: config.LoggingConfig{}, enabled: zapcore.InfoLevel},
		{name: "debug development", cfg: config.LoggingConfig{Level: "debug", Development: true}, enabled: zapcore.DebugLevel},
		{name: "error", cfg: config.LoggingConfig{Level: "error"}, enabled: zapcore.ErrorLevel},
		{name: "unknown", cfg: config.LoggingConfig{Level: "chatty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.enabled-1))
		})
	}
}
