package artifact_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/relay/internal/adapters/artifact"
	"go.trai.ch/relay/internal/core/domain"
)

func TestStore_WriteReadRoundtrip(t *testing.T) {
	store := artifact.NewStore(t.TempDir())

	values := map[string]string{
		"RELAY_RUN_ID":   "run-123",
		"RELAY_EVENT":    "push",
		"RELAY_KEY_CLI":  "edb-v1-cli-abc",
		"RELAY_WORKTREE": "/srv/checkout",
	}
	require.NoError(t, store.WriteEnv(values))

	got, err := store.ReadEnv()
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestStore_WriteEnv_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "shared")
	store := artifact.NewStore(dir)

	require.NoError(t, store.WriteEnv(map[string]string{"K": "v"}))

	_, err := os.Stat(filepath.Join(dir, domain.EnvArtifactFileName))
	require.NoError(t, err)
}

func TestStore_ReadEnv_MissingArtifact(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	_, err := store.ReadEnv()
	require.Error(t, err)
}

func TestStore_Prune(t *testing.T) {
	dir := t.TempDir()
	store := artifact.NewStore(dir)

	oldFile := filepath.Join(dir, "old.env")
	require.NoError(t, os.WriteFile(oldFile, []byte("K=v\n"), 0o644))
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, stale, stale))

	freshFile := filepath.Join(dir, "fresh.env")
	require.NoError(t, os.WriteFile(freshFile, []byte("K=v\n"), 0o644))

	removed, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshFile)
	require.NoError(t, err)
}

func TestStore_Prune_MissingDir(t *testing.T) {
	store := artifact.NewStore(filepath.Join(t.TempDir(), "never-created"))
	removed, err := store.Prune(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
