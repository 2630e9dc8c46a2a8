package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon settings for one staking pool instance.
type Config struct {
	// ListenAddress is the host:port the HTTP surface binds to.
	ListenAddress string `toml:"ListenAddress"`
	// DataDir holds the LevelDB state database.
	DataDir string `toml:"DataDir"`
	// Env labels log output (e.g. "dev", "prod").
	Env string `toml:"Env"`
	// PoolLabel names the pool instance; the pool record address is derived
	// from it, so changing the label points the daemon at fresh state.
	PoolLabel string `toml:"PoolLabel"`
}

const defaultConfig = `ListenAddress = "127.0.0.1:8645"
DataDir = "./nftstake-data"
Env = "dev"
PoolLabel = "main"
`

// Load reads the configuration from the given path, writing a default file
// first when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return nil, err
		}
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded settings for obvious misconfiguration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}
	if strings.TrimSpace(c.PoolLabel) == "" {
		return fmt.Errorf("config: PoolLabel must be set")
	}
	return nil
}

func createDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, []byte(defaultConfig), 0o600)
}
