package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "places", cfg.Provider.Name)
	require.Equal(t, 2*time.Second, cfg.Provider.PageDelay)
	require.Equal(t, 3, cfg.Provider.MaxPages)
	require.Equal(t, 30*time.Second, cfg.Provider.RateLimitCooldown)
	require.Equal(t, 2, cfg.Provider.RateLimitRetries)
	require.Equal(t, 5*time.Second, cfg.Provider.RetryDelay)
	require.Contains(t, cfg.Provider.AllowedRegions, "TX")
	require.Len(t, cfg.Provider.AllowedRegions, 51)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Equal(t, 8, cfg.Query.EnrichLimit)
	require.True(t, cfg.Query.EnrichLocal)
}

func TestLoadConfigFrom_YAMLOverridesDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9090
provider:
  name: " NONE "
  page_delay: 500ms
  allowed_regions: ["tx", "ok"]
cache:
  backend: Redis
  ttl: 5m
query:
  max_page_size: 50
seed_categories: ["Plumbing"]
`)

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "none", cfg.Provider.Name)
	require.Equal(t, 500*time.Millisecond, cfg.Provider.PageDelay)
	require.Equal(t, []string{"TX", "OK"}, cfg.Provider.AllowedRegions)
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 50, cfg.Query.MaxPageSize)
	require.Equal(t, 20, cfg.Query.DefaultPageSize)
	require.Equal(t, []string{"Plumbing"}, cfg.SeedCategories)
}

func TestLoadConfigFrom_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("PLACES_API_KEY", "env-key")
	t.Setenv("DATABASE_DSN", "postgres://env/db")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	dir := writeConfig(t, `
provider:
  api_key: yaml-key
`)
	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	require.Equal(t, "env-key", cfg.Provider.APIKey)
	require.Equal(t, "postgres://env/db", cfg.Database.DSN)
	require.Equal(t, "redis://localhost:6379/1", cfg.Cache.RedisURL)
}

func TestLoadConfigFrom_BrokenYAML(t *testing.T) {
	dir := writeConfig(t, "server: [port\n")
	_, err := LoadConfigFrom(dir)
	require.Error(t, err)
}
