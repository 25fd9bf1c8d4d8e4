package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "America/Chicago", cfg.Timezone)
	assert.Equal(t, "https://courses.illinois.edu/schedule", cfg.Schedule.BaseURL)
	assert.Equal(t, 5, cfg.Buildings.MinRooms)
	assert.Equal(t, 4, cfg.Scraper.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Scraper.Backoff)
	assert.True(t, cfg.Buildings.ExcludedSet()["Chemistry Annex"])
	assert.Empty(t, cfg.Scraper.Proxies)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	content := `buildings:
  min_rooms: 8
  aliases:
    "Siebel Center for Comp Sci": "Siebel Center"
scraper:
  proxies:
    - http://127.0.0.1:8081
  backoff: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Buildings.MinRooms)
	assert.Equal(t, "Siebel Center", cfg.Buildings.Aliases["Siebel Center for Comp Sci"])
	assert.Equal(t, []string{"http://127.0.0.1:8081"}, cfg.Scraper.Proxies)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.Backoff)
	// untouched keys keep their defaults
	assert.Equal(t, "America/Chicago", cfg.Timezone)
	assert.Equal(t, 4, cfg.Scraper.MaxAttempts)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buildings: [not, a, map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())

	cfg.Timezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()

	// missing files are ignored
	require.NoError(t, LoadEnv(filepath.Join(dir, ".env.local")))

	path := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(path, []byte("ILLINISPOTS_TEST_DSN=postgres://example\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ILLINISPOTS_TEST_DSN") })

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "postgres://example", Getenv("ILLINISPOTS_TEST_DSN", ""))
	assert.Equal(t, "fallback", Getenv("ILLINISPOTS_TEST_UNSET", "fallback"))
}
