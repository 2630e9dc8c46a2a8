package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8645", cfg.ListenAddress)
	require.Equal(t, "main", cfg.PoolLabel)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `ListenAddress = "0.0.0.0:9000"
DataDir = "/var/lib/nftstake"
Env = "prod"
PoolLabel = "season-two"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.ListenAddress)
	require.Equal(t, "season-two", cfg.PoolLabel)
	require.Equal(t, "prod", cfg.Env)
}

func TestValidateRejectsBlankFields(t *testing.T) {
	cfg := &Config{ListenAddress: " ", DataDir: "d", PoolLabel: "p"}
	require.Error(t, cfg.Validate())

	cfg = &Config{ListenAddress: "a", DataDir: "", PoolLabel: "p"}
	require.Error(t, cfg.Validate())

	cfg = &Config{ListenAddress: "a", DataDir: "d", PoolLabel: ""}
	require.Error(t, cfg.Validate())
}
