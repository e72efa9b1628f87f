// Package config provides the configuration system for basalt.
// A single Config structure covers the storage engine: LSM index
// sizing, pool limits, text format defaults, and logging.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/basaltdb/basalt/pkg/errors"
)

// Config is the top-level engine configuration.
type Config struct {
	// LSM controls the key->offset index
	LSM LSMConfig `yaml:"lsm" json:"lsm"`

	// Pools bounds the recycling pools
	Pools PoolConfig `yaml:"pools" json:"pools"`

	// Text sets the default text row format options
	Text TextConfig `yaml:"text" json:"text"`

	// Log configures the structured logger
	Log LogConfig `yaml:"log" json:"log"`
}

// LSMConfig controls memtable sizing and compaction.
type LSMConfig struct {
	// MemtableBytes bounds the in-memory sorted map before a flush
	MemtableBytes int64 `yaml:"memtable_bytes" json:"memtable_bytes"`
	// CompactionThreshold is the segment count that triggers a merge
	CompactionThreshold int `yaml:"compaction_threshold" json:"compaction_threshold"`
}

// PoolConfig bounds the row and buffer pools.
type PoolConfig struct {
	// RowsPerSchema caps recycled row shells per schema identity
	RowsPerSchema int `yaml:"rows_per_schema" json:"rows_per_schema"`
	// MaxSchemas caps the number of distinct schemas pooled
	MaxSchemas int `yaml:"max_schemas" json:"max_schemas"`
	// BufferPoolSize caps pooled byte buffers
	BufferPoolSize int `yaml:"buffer_pool_size" json:"buffer_pool_size"`
	// BufferAlign is the minimum capacity of a pooled buffer
	BufferAlign int `yaml:"buffer_align" json:"buffer_align"`
}

// TextConfig sets default delimiter/quote/null-token for text codecs.
type TextConfig struct {
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	Quote     string `yaml:"quote" json:"quote"`
	NilToken  string `yaml:"nil_token" json:"nil_token"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string   `yaml:"level" json:"level"`
	Development bool     `yaml:"development" json:"development"`
	Encoding    string   `yaml:"encoding" json:"encoding"`
	OutputPaths []string `yaml:"output_paths" json:"output_paths"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		LSM: LSMConfig{
			MemtableBytes:       4 << 20,
			CompactionThreshold: 10,
		},
		Pools: PoolConfig{
			RowsPerSchema:  256,
			MaxSchemas:     32,
			BufferPoolSize: 64,
			BufferAlign:    4096,
		},
		Text: TextConfig{
			Delimiter: ",",
			Quote:     `"`,
			NilToken:  "NULL",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.LSM.MemtableBytes <= 0 {
		return errors.New(errors.ErrorTypeConfig, "lsm.memtable_bytes must be positive")
	}
	if c.LSM.CompactionThreshold < 2 {
		return errors.New(errors.ErrorTypeConfig, "lsm.compaction_threshold must be at least 2")
	}
	if c.Pools.RowsPerSchema < 0 || c.Pools.MaxSchemas < 0 {
		return errors.New(errors.ErrorTypeConfig, "pool limits must not be negative")
	}
	if len(c.Text.Delimiter) > 1 || len(c.Text.Quote) > 1 {
		return errors.New(errors.ErrorTypeConfig, "text delimiter and quote must be single characters")
	}
	return nil
}
