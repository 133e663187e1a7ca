package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	require.NoError(t, Init(Config{Level: "debug", OutputFile: path, Quiet: true, MaxSize: 1}))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	Component("feed").Info("hello from feed")
	Debugf("debug %d", 42)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, "hello from feed"))
	assert.True(t, strings.Contains(out, "component=feed"))
	assert.True(t, strings.Contains(out, "debug 42"))
	assert.Equal(t, path, GetCurrentLogFile())
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Config{Level: "loud", Quiet: true}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}
