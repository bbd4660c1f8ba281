package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "version: 1\nencoding: latin1\nstore_capacity: 10\nverbose: true\n")

	res, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, 1, res.Config.Version)
	assert.Equal(t, "latin1", res.Config.Encoding())
	assert.Equal(t, 10, res.Config.StoreCapacity())
	assert.True(t, res.Config.Verbose)
}

func TestLoad_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "version: 2\nspool_dir: /var/tmp\nstore_dir: /var/tmp/runs\n")

	sub := filepath.Join(root, "pkg", "foo")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	res, err := Load(sub)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, 2, res.Config.Version)
	assert.Equal(t, "/var/tmp", res.Config.SpoolDir)
	assert.Equal(t, "/var/tmp/runs", res.Config.StoreDir)
}

func TestLoad_NoFile(t *testing.T) {
	res, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.Equal(t, "utf-8", res.Config.Encoding())
	assert.Equal(t, DefaultStoreCapacity, res.Config.StoreCapacity())
	assert.False(t, res.Config.Verbose)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "version: [\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "parsing .shellcap")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown encoding", content: "encoding: klingon\n", want: `unknown encoding "klingon"`},
		{name: "negative capacity", content: "store_capacity: -1\n", want: "store_capacity must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := Load(dir)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{RawStoreCapacity: 0}
	assert.Equal(t, "utf-8", cfg.Encoding())
	assert.Equal(t, 5, cfg.StoreCapacity())
	assert.NoError(t, cfg.Validate())
}
