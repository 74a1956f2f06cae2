package credstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/eldermate/internal/logging"
	"github.com/stretchr/testify/require"
)

func newTestBackupStore(t *testing.T) (*BackupStore, string, *time.Time) {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, "users.json")
	bs := NewBackupStore(source, filepath.Join(dir, "backups"), logging.Discard())

	current := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	bs.now = func() time.Time { return current }
	return bs, source, &current
}

func TestBackupCreate_NoSource(t *testing.T) {
	bs, _, _ := newTestBackupStore(t)
	require.False(t, bs.Create())
}

func TestBackupPrune_KeepsFive(t *testing.T) {
	bs, source, clock := newTestBackupStore(t)

	for i := 0; i < 7; i++ {
		require.NoError(t, os.WriteFile(source, []byte{byte('a' + i)}, 0o600))
		require.True(t, bs.Create())
		*clock = clock.Add(time.Second)
	}
	require.Len(t, bs.list(), backupKeep)
}

func TestRestore_NoBackups(t *testing.T) {
	bs, _, _ := newTestBackupStore(t)
	require.False(t, bs.Restore(""))
}

func TestRestore_ExplicitOldSnapshotSurvivesPruning(t *testing.T) {
	bs, source, clock := newTestBackupStore(t)

	require.NoError(t, os.WriteFile(source, []byte("oldest"), 0o600))
	require.True(t, bs.Create())

	for i := 0; i < 4; i++ {
		*clock = clock.Add(time.Second)
		require.NoError(t, os.WriteFile(source, []byte("newer"), 0o600))
		require.True(t, bs.Create())
	}

	files := bs.list()
	require.Len(t, files, backupKeep)
	oldest := files[len(files)-1]

	// Restoring the oldest snapshot takes a pre-restore backup of the
	// current file, and the pruning that triggers deletes that snapshot.
	// The restored content must still be the requested one.
	*clock = clock.Add(time.Second)
	require.NoError(t, os.WriteFile(source, []byte("current"), 0o600))
	require.True(t, bs.Restore(oldest))

	data, err := os.ReadFile(source)
	require.NoError(t, err)
	require.Equal(t, "oldest", string(data))
	require.NoFileExists(t, oldest)
}
