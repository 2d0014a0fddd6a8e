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
	cfg := Load()

	assert.Equal(t, "rod", cfg.Browser.Engine)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Harvest.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Harvest.ElementTimeout)
	assert.Equal(t, 5*time.Second, cfg.Harvest.WarmUp)
	assert.Equal(t, 3*time.Second, cfg.Harvest.Settle)
	assert.Equal(t, 2*time.Second, cfg.Harvest.ItemDelay)
	assert.Equal(t, 8, cfg.Harvest.ScrollMaxIterations)
	assert.Equal(t, 2, cfg.Harvest.ScrollIdleRounds)
	assert.Equal(t, `div[role="feed"]`, cfg.Harvest.FeedSelector)
	assert.Equal(t, `a[href*="/maps/place/"]`, cfg.Harvest.LinkSelector)
	assert.Equal(t, "google_places", cfg.Export.BaseName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PLACEHARVEST_ITEM_DELAY", "500ms")
	t.Setenv("PLACEHARVEST_SCROLL_MAX", "3")
	t.Setenv("PLACEHARVEST_HEADLESS", "false")
	t.Setenv("PLACEHARVEST_API_KEYS", " a , ,b")
	t.Setenv("PLACEHARVEST_PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, 500*time.Millisecond, cfg.Harvest.ItemDelay)
	assert.Equal(t, 3, cfg.Harvest.ScrollMaxIterations)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.Equal(t, 8080, cfg.Server.Port, "invalid values fall back to the default")
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	doc := `
harvest:
  settle: 1s
  scroll_idle_rounds: 0
export:
  base_name: cafes
browser:
  blocked_resource_types: [Image, Font]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("PLACEHARVEST_WARM_UP", "7s")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Harvest.Settle)
	assert.Equal(t, 0, cfg.Harvest.ScrollIdleRounds)
	assert.Equal(t, "cafes", cfg.Export.BaseName)
	assert.Equal(t, []string{"Image", "Font"}, cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, 7*time.Second, cfg.Harvest.WarmUp, "keys absent from the file keep the env value")
	assert.Equal(t, 8, cfg.Harvest.ScrollMaxIterations)
}

func TestLoadFile_MissingExplicitFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_MissingDefaultFileIsFine(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("PLACEHARVEST_CONFIG", "")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "google_places", cfg.Export.BaseName)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("harvest:\n  scrol_max: 3\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
