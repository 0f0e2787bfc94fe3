package applog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesToFileUnderGivenDataDir(t *testing.T) {
	dir := t.TempDir()

	closeFn, err := Setup(dir)
	require.NoError(t, err)
	defer closeFn()

	log.Info().Msg("hello from test")

	logPath := filepath.Join(dir, "logs", "agentcore.log")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestLevelFromEnv_DefaultsToInfo(t *testing.T) {
	t.Setenv(envLevel, "")
	assert.Equal(t, "info", levelFromEnv().String())
}

func TestLevelFromEnv_RespectsOverride(t *testing.T) {
	t.Setenv(envLevel, "debug")
	assert.Equal(t, "debug", levelFromEnv().String())
}
