package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    zerolog.Level
		wantErr bool
	}{
		{name: "default is info", config: Config{}, want: zerolog.InfoLevel},
		{name: "explicit level", config: Config{Level: "warn", Output: "stderr"}, want: zerolog.WarnLevel},
		{name: "debug overrides level", config: Config{Level: "error", Debug: true}, want: zerolog.DebugLevel},
		{name: "console output", config: Config{Level: "debug", Output: "console"}, want: zerolog.DebugLevel},
		{name: "bad level", config: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, globalLogger.GetLevel())
		})
	}
}

func TestWithComponent(t *testing.T) {
	require.NoError(t, Init(Config{Level: "info"}))

	l := WithComponent("scanner")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
