package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONLinesToFile(t *testing.T) {
	t.Setenv(EnvLevel, "")
	path := filepath.Join(t.TempDir(), "nested", "deckhand.log")

	closeFn, err := Setup("debug", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	For("bot").WithField("store", "bot").Debug("Bot started")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))
	assert.Contains(t, line, `"component":"bot"`)
	assert.Contains(t, line, `"msg":"Bot started"`)
	assert.Contains(t, line, `"level":"debug"`)
}

func TestSetup_EnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	closeFn, err := Setup("debug", filepath.Join(t.TempDir(), "x.log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	assert.Equal(t, logrus.ErrorLevel, For("system").Logger.GetLevel())
}

func TestFor_ReturnsSameEntryPerComponent(t *testing.T) {
	assert.Same(t, For("devices"), For("devices"))
	assert.NotSame(t, For("devices"), For("bot"))
}
