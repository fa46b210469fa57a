package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
	"github.com/Lesliefans0-0/dnnbrain/pkg/export"
)

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	require.Error(t, err)

	de, ok := dnnerrors.AsDnnError(err)
	require.True(t, ok, "expected *DnnError, got %T", err)
	assert.Equal(t, dnnerrors.ErrConfigNotFound, de.Code)
	assert.Equal(t, dnnerrors.CategoryConfig, de.Category)
	assert.True(t, os.IsNotExist(de.Cause))

	foundInit := false
	for _, s := range de.Suggestions {
		if strings.Contains(s, "--init") {
			foundInit = true
		}
	}
	assert.True(t, foundInit, "expected a suggestion mentioning --init")
}

func TestLoad_YAMLParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: [unclosed\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, dnnerrors.IsCode(err, dnnerrors.ErrConfigParseFailed))

	de, _ := dnnerrors.AsDnnError(err)
	assert.Equal(t, path, de.Context["path"])
	assert.NotNil(t, de.Cause)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"log level", "log:\n  level: loud\n", "log.level"},
		{"log encoding", "log:\n  encoding: xml\n", "log.encoding"},
		{"dialect", "export:\n  dialect: semicolon\n", "export.dialect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, dnnerrors.IsCode(err, dnnerrors.ErrConfigInvalid))
			de, _ := dnnerrors.AsDnnError(err)
			assert.Equal(t, tt.field, de.Context["field"])
		})
	}
}

func TestLoad_MergesWithDefaults(t *testing.T) {
	t.Setenv(DataEnvVar, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "data_dir: /data/dnnbrain\nexport:\n  dialect: tsv\n  include_header: true\n  precision: 4\n  na_string: nan\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/dnnbrain", cfg.DataDir)
	assert.Equal(t, filepath.Join("/data/dnnbrain", "test"), cfg.TestDir())
	assert.Equal(t, export.DialectTSV, cfg.Export.Dialect)
	assert.Equal(t, 4, cfg.Export.Precision)
	assert.Equal(t, "nan", cfg.Export.NAString)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv(DataEnvVar, "/from/env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/file\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(DataEnvVar, "/env/data")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.DataDir)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.DataDir)
	assert.Empty(t, cfg.TestDir())
	assert.Equal(t, *export.DefaultCSVConfig(), cfg.Export)
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(DataEnvVar, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.DataDir = "/srv/dnnbrain_data"
	cfg.Log.Level = "debug"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, InitConfig(path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	// Existing files are left alone.
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /keep\n"), 0644))
	require.NoError(t, InitConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data_dir: /keep\n", string(data))
}
