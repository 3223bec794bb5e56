package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infohub/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "debug"}
	log, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NotNil(t, log.GetZerolog())
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "shout"}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestTestLoggerCaptures(t *testing.T) {
	log := NewTestLogger()
	log.Info("started")
	log.WarnWithFields("slow response", map[string]interface{}{"ms": 1500})

	assert.True(t, log.HasMessage("INFO", "started"))
	assert.True(t, log.HasMessage("WARN", "slow response"))
	assert.False(t, log.HasMessage("ERROR", "started"))
	assert.Len(t, log.Messages(), 2)
}
