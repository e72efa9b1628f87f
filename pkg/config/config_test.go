package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(4<<20), cfg.LSM.MemtableBytes)
	assert.Equal(t, 10, cfg.LSM.CompactionThreshold)
	assert.Equal(t, 256, cfg.Pools.RowsPerSchema)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basalt.yaml")
	content := []byte(`
lsm:
  memtable_bytes: 1048576
text:
  delimiter: "|"
  nil_token: "\\N"
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), cfg.LSM.MemtableBytes)
	assert.Equal(t, "|", cfg.Text.Delimiter)
	assert.Equal(t, `\N`, cfg.Text.NilToken)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched sections keep their defaults
	assert.Equal(t, 10, cfg.LSM.CompactionThreshold)
	assert.Equal(t, 32, cfg.Pools.MaxSchemas)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LSM.MemtableBytes = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LSM.CompactionThreshold = 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Text.Delimiter = ",,"
	assert.Error(t, cfg.Validate())
}
