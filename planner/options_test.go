package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"mit.edu/dsg/relopt/rel"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Options
		wantErr  bool
	}{
		{
			name:     "empty",
			input:    "",
			expected: DefaultOptions(),
		},
		{
			name: "yaml",
			input: "log_level: debug\n" +
				"cost_weights:\n" +
				"  rows: 1\n" +
				"  cpu: 0.5\n" +
				"  io: 4\n" +
				"check_row_types: false\n",
			expected: Options{
				LogLevel:    "debug",
				CostWeights: rel.CostWeights{Rows: 1, CPU: 0.5, IO: 4},
			},
		},
		{
			name:  "json",
			input: `{"log_level": "warn"}`,
			expected: Options{
				LogLevel:      "warn",
				CostWeights:   rel.DefaultCostWeights,
				CheckRowTypes: true,
			},
		},
		{name: "unknown field", input: "verbose: true\n", wantErr: true},
		{name: "bad level", input: "log_level: loud\n", wantErr: true},
		{name: "negative weight", input: "cost_weights: {rows: -1}\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseOptions([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, opts)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "error", opts.LogLevel)

	logger, err := NewLogger(opts)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
