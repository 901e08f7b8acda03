package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/autoservice/internal/config"
)

func TestBuildLevels(t *testing.T) {
	tests := []struct {
		name     string
		obs      config.Observability
		wantDbg  bool
		wantInfo bool
	}{
		{name: "json info", obs: config.Observability{LogLevel: "info", LogEncoding: "json"}, wantInfo: true},
		{name: "console debug", obs: config.Observability{LogLevel: "DEBUG", LogEncoding: "console"}, wantDbg: true, wantInfo: true},
		{name: "unknown level falls back to info", obs: config.Observability{LogLevel: "verbose"}, wantInfo: true},
		{name: "error only", obs: config.Observability{LogLevel: "error", LogEncoding: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Build(tt.obs)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDbg, logger.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.wantInfo, logger.Core().Enabled(zapcore.InfoLevel))
			assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestNewSyncsOnStop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	logger, err := New(lc, config.Config{Observability: config.Observability{ServiceName: "autoservice", LogEncoding: "json"}})
	require.NoError(t, err)
	require.NotNil(t, logger)

	lc.RequireStart().RequireStop()
}
