package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

// isolate points the user config at an empty directory and clears env overrides.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"TYPEINDEX_WORKERS", "TYPEINDEX_PARALLEL", "TYPEINDEX_EXPAND_SUPERTYPES",
		"TYPEINDEX_LOG_LEVEL", "TYPEINDEX_SNAPSHOT_PATH", "TYPEINDEX_SNAPSHOT_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{"subtypes", "types", "resources"}, cfg.Scan.Extractors)
	assert.True(t, cfg.Scan.Parallel)
	assert.Equal(t, 0, cfg.Scan.Workers)
	assert.True(t, cfg.Scan.ExpandSupertypes)
	assert.True(t, cfg.Scan.ExcludeObject)
	assert.Equal(t, filepath.Join(".typeindex", "index.json"), cfg.Snapshot.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".typeindex.yaml"), `
version: 1
sources: [build/classes, lib/app.jar]
classpath: [lib/]
filter:
  include: ["com\\.acme\\..*"]
  packages: [com.acme]
scan:
  parallel: false
  workers: 4
  expand_supertypes: false
snapshot:
  path: out/index.db
`)

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"build/classes", "lib/app.jar"}, cfg.Sources)
	assert.Equal(t, []string{"lib/"}, cfg.Classpath)
	assert.Equal(t, []string{`com\.acme\..*`}, cfg.Filter.Include)
	assert.Equal(t, []string{"com.acme"}, cfg.Filter.Packages)
	assert.False(t, cfg.Scan.Parallel, "explicit false overrides the default")
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.False(t, cfg.Scan.ExpandSupertypes)
	assert.True(t, cfg.Scan.ExcludeObject, "absent keys keep defaults")
	assert.Equal(t, []string{"subtypes", "types", "resources"}, cfg.Scan.Extractors)
	assert.Equal(t, "out/index.db", cfg.Snapshot.Path)
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".typeindex.yml"), "log:\n  level: debug\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	isolate(t)
	userDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", userDir)
	writeFile(t, filepath.Join(userDir, "typeindex", "config.yaml"), "scan:\n  workers: 2\nlog:\n  level: warn\n")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".typeindex.yaml"), "scan:\n  workers: 8\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".typeindex.yaml"), "scan:\n  workers: 8\n")

	t.Setenv("TYPEINDEX_WORKERS", "3")
	t.Setenv("TYPEINDEX_PARALLEL", "false")
	t.Setenv("TYPEINDEX_EXPAND_SUPERTYPES", "0")
	t.Setenv("TYPEINDEX_LOG_LEVEL", "error")
	t.Setenv("TYPEINDEX_SNAPSHOT_PATH", "/tmp/x.yaml")
	t.Setenv("TYPEINDEX_SNAPSHOT_FORMAT", "yaml")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.False(t, cfg.Scan.Parallel)
	assert.False(t, cfg.Scan.ExpandSupertypes)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/tmp/x.yaml", cfg.Snapshot.Path)
	assert.Equal(t, "yaml", cfg.Snapshot.Format)
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("TYPEINDEX_WORKERS", "many")

	_, err := Load(t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, ierrors.ErrConfigInvalid)
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".typeindex.yaml"), "scan: [unclosed\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, ierrors.ErrConfigInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 2 }, "version"},
		{"negative workers", func(c *Config) { c.Scan.Workers = -1 }, "scan.workers"},
		{"no extractors", func(c *Config) { c.Scan.Extractors = nil }, "at least one"},
		{"unknown extractor", func(c *Config) { c.Scan.Extractors = []string{"methods"} }, "unknown extractor"},
		{"extractor case", func(c *Config) { c.Scan.Extractors = []string{"SubTypes"} }, ""},
		{"bad format", func(c *Config) { c.Snapshot.Format = "xml" }, "snapshot.format"},
		{"sqlite format", func(c *Config) { c.Snapshot.Format = "sqlite" }, ""},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_HasExtractor(t *testing.T) {
	cfg := NewConfig()
	cfg.Scan.Extractors = []string{"SubTypes"}

	assert.True(t, cfg.HasExtractor(ExtractorSubTypes))
	assert.False(t, cfg.HasExtractor(ExtractorResources))
}

func TestConfig_WriteYAMLRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Sources = []string{"a.jar"}
	cfg.Scan.Parallel = false
	path := filepath.Join(t.TempDir(), "cfg.yaml")

	require.NoError(t, cfg.WriteYAML(path))
	loaded, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, cfg.Sources, loaded.Sources)
	assert.Equal(t, cfg.Scan, loaded.Scan)
	assert.Equal(t, cfg.Snapshot, loaded.Snapshot)
	assert.Equal(t, cfg.Log, loaded.Log)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeConfigNotFound, ierrors.GetCode(err))
}
