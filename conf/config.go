package conf

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"gopkg.in/ini.v1"
)

// StorageConfig carries everything the engine needs to come up: where the
// data file lives, how many frames the buffer pool owns, and how logging
// behaves. Page size is a compile-time constant and deliberately not here.
type StorageConfig struct {
	DataDir  string `ini:"data_dir" toml:"data_dir"`
	DataFile string `ini:"data_file" toml:"data_file"`

	// PoolSize 缓冲池大小（页数）
	PoolSize int `ini:"pool_size" toml:"pool_size"`

	// BucketSize 页表哈希桶容量
	BucketSize int `ini:"bucket_size" toml:"bucket_size"`

	SyncOnWrite  bool `ini:"sync_on_write" toml:"sync_on_write"`
	FlushOnClose bool `ini:"flush_on_close" toml:"flush_on_close"`

	LogLevel string `ini:"log_level" toml:"log_level"`
	LogPath  string `ini:"log_path" toml:"log_path"`
}

// Default returns the configuration used when no config file is given.
func Default() *StorageConfig {
	return &StorageConfig{
		DataDir:      "data",
		DataFile:     "storage.ibd",
		PoolSize:     64,
		BucketSize:   50,
		SyncOnWrite:  false,
		FlushOnClose: true,
		LogLevel:     "info",
	}
}

// DataFilePath joins the data dir and file name.
func (c *StorageConfig) DataFilePath() string {
	return filepath.Join(c.DataDir, c.DataFile)
}

// Validate rejects configurations the engine cannot run with.
func (c *StorageConfig) Validate() error {
	if c.DataDir == "" || c.DataFile == "" {
		return ErrMissingDataPath
	}
	if c.PoolSize <= 0 {
		return ErrInvalidPoolSize
	}
	if c.BucketSize <= 0 {
		return ErrInvalidBucketSize
	}
	return nil
}

// Load reads an ini file in the style of my.cnf:
//
//	[storage]
//	data_dir   = /var/lib/xstorage
//	pool_size  = 128
func Load(path string) (*StorageConfig, error) {
	raw, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := raw.Section("storage").MapTo(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadToml reads the same configuration from a [storage] table in TOML.
func LoadToml(path string) (*StorageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	wrapper := struct {
		Storage StorageConfig `toml:"storage"`
	}{Storage: *Default()}
	if err := toml.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	cfg := wrapper.Storage
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
