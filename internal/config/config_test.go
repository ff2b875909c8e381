package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "forms", cfg.Store.Profile)
}

func TestLoad_FileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskcreator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /var/lib/osticket.db
  profile: core
audit_path: /var/log/created-tasks.json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/osticket.db", cfg.Store.Path)
	assert.Equal(t, "core", cfg.Store.Profile)
	assert.Equal(t, "/var/log/created-tasks.json", cfg.AuditPath)
	// Untouched keys keep their defaults.
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "SYSTEM", cfg.SystemIdentity)
}

func TestLoad_UnknownProfileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskcreator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  profile: legacy
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy")
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
