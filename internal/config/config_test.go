package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/kdapps/internal/env"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(LoadOptions{Environ: env.Vars{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.NotEmpty(t, cfg.StoreDir)
	assert.Empty(t, cfg.CatalogPath)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "nope.yaml"), Environ: env.Vars{}})
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kdapps.env"), []byte("KDAPPS_OWNER=from-file\nKDAPPS_LOG_LEVEL=warn\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kdapps.yaml"), []byte(`
storeDir: store
owner: yaml-owner
catalog: '{{ envOr "CATALOG_FILE" "catalog.yaml" }}'
logLevel: debug
envFiles: [kdapps.env]
`), 0o644))

	cfg, err := Load(LoadOptions{
		Path:    filepath.Join(dir, "kdapps.yaml"),
		Environ: env.Vars{"KDAPPS_LOG_LEVEL": "error"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "store"), cfg.StoreDir)
	assert.Equal(t, filepath.Join(dir, "catalog.yaml"), cfg.CatalogPath)
	assert.Equal(t, "from-file", cfg.Owner, ".env files override the YAML file")
	assert.Equal(t, "error", cfg.LogLevel, "process environment overrides .env files")

	cfg, err = Load(LoadOptions{
		Path:    filepath.Join(dir, "kdapps.yaml"),
		Environ: env.Vars{"CATALOG_FILE": "/etc/kdapps/catalog.toml"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/etc/kdapps/catalog.toml", cfg.CatalogPath)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kdapps.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storeDir: [unclosed\n"), 0o644))
	_, err := Load(LoadOptions{Path: path, Environ: env.Vars{}})
	assert.Error(t, err)
}
