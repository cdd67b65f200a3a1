package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DESIGNER_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 8, cfg.MaxTurns)
	assert.Equal(t, 120*time.Second, cfg.TurnTimeout)
	assert.Equal(t, "QUESTION:", cfg.QuestionMarker)
	assert.Equal(t, "GATHERED:", cfg.GatheredMarker)
	assert.Equal(t, "console", cfg.LogEncoding)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DESIGNER_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))
	t.Setenv("DESIGNER_PROVIDER", "openai")
	t.Setenv("DESIGNER_MAX_TURNS", "4")
	t.Setenv("DESIGNER_TURN_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 4, cfg.MaxTurns)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: openai
max_turns: 5
turn_timeout: 90s
markers:
  question: "Q>"
  gathered: "A>"
transcript_dir: /tmp/transcripts
`), 0o644))
	t.Setenv("DESIGNER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 5, cfg.MaxTurns)
	assert.Equal(t, 90*time.Second, cfg.TurnTimeout)
	assert.Equal(t, "Q>", cfg.QuestionMarker)
	assert.Equal(t, "A>", cfg.GatheredMarker)
	assert.Equal(t, "DESIGN COMPLETE", cfg.CompleteMarker, "unset markers keep their defaults")
	assert.Equal(t, "/tmp/transcripts", cfg.TranscriptDir)
}

func TestEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("max_turns: 5\n"), 0o644))
	t.Setenv("DESIGNER_CONFIG", path)
	t.Setenv("DESIGNER_MAX_TURNS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxTurns)
}

func TestMalformedSettingsFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("max_turns: [not an int\n"), 0o644))
	t.Setenv("DESIGNER_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}
