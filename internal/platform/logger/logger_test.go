package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Level = "verbose"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "console"} {
		cfg := DefaultConfig()
		cfg.Format = format

		l, err := New(cfg)
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNew_WritesRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.log")
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.File = path

	l, err := New(cfg)
	require.NoError(t, err)

	l.Info("hello file")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello file")
}
