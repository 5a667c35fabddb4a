package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  id: 1
  address: "127.0.0.1:9001"
peers:
  - id: 2
    address: "127.0.0.1:9002"
`), 0o644))

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), cfg.Server.ID)
	assert.Len(t, cfg.Peers, 1)
	assert.Equal(t, Defaults().ElectionTimeoutSecs, cfg.Timing.ElectionTimeoutSecs)
}

func TestLoadServerConfigRejectsMissingID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: "127.0.0.1:9001"
`), 0o644))

	_, err := LoadServerConfig(path)
	assert.Error(t, err)
}

func TestLoadClientConfigDefaultsHysteresis(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client:
  name: "alice"
server_addresses:
  - "127.0.0.1:9001"
`), 0o644))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ReassignmentHysteresisPolls)
}
