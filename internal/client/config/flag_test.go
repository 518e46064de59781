package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "Test1 OK",
			args: []string{"cmd", "-a", "http://127.0.0.1:9090", "-d", "file:alt.db", "-w", "10"},
			expected: &Config{
				ServerBaseURL: "http://127.0.0.1:9090",
				DatabaseDSN:   "file:alt.db",
				WatchInterval: 10 * time.Second,
			},
		},
		{
			name:        "Test2 incorrect watch interval",
			args:        []string{"cmd", "-a", "http://127.0.0.1:9090", "-w", "abc"},
			expectPanic: true,
			expected:    &Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Equal(t, tt.expected, config)
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
