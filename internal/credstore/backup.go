package credstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmitrijs2005/eldermate/internal/filex"
	"github.com/dmitrijs2005/eldermate/internal/logging"
)

// backupKeep is the number of most recent snapshots retained after pruning.
const backupKeep = 5

// BackupStore takes timestamped snapshots of the credential file and
// restores them. Operations are best-effort: failures are logged and
// reported as false, never raised.
type BackupStore struct {
	source string
	dir    string
	log    logging.Logger
	now    func() time.Time
}

func NewBackupStore(source, dir string, log logging.Logger) *BackupStore {
	if err := filex.EnsureDir(dir); err != nil {
		log.Error(context.Background(), "cannot create backup directory", "error", err)
	}
	return &BackupStore{source: source, dir: dir, log: log, now: time.Now}
}

// Create copies the current credential file into a snapshot named with a
// second-granularity timestamp, then prunes old snapshots. Returns false
// when there is no source file yet.
func (b *BackupStore) Create() bool {
	ctx := context.Background()

	if _, err := os.Stat(b.source); err != nil {
		return false
	}

	name := "users_backup_" + b.now().Format("20060102_150405") + ".json"
	dst := filepath.Join(b.dir, name)

	if err := filex.CopyFile(b.source, dst); err != nil {
		b.log.Error(ctx, "cannot create backup", "error", err)
		return false
	}

	b.prune()

	b.log.Debug(ctx, "backup created", "file", name)
	return true
}

// Latest returns the path of the most recent snapshot, or "" if none exist.
func (b *BackupStore) Latest() string {
	files := b.list()
	if len(files) == 0 {
		return ""
	}
	return files[0]
}

// Restore overwrites the live credential file with the given snapshot (the
// latest one when path is ""). The snapshot content is read up front: the
// pre-restore backup of the current file triggers pruning, which may delete
// the very snapshot being restored. Returns false when no snapshot is
// available.
func (b *BackupStore) Restore(path string) bool {
	ctx := context.Background()

	if path == "" {
		path = b.Latest()
	}
	if path == "" {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	// The current file, possibly corrupt, is snapshotted so nothing is lost.
	b.Create()

	if err := filex.WriteFileAtomic(b.source, data, 0o600); err != nil {
		b.log.Error(ctx, "cannot restore backup", "file", path, "error", err)
		return false
	}

	b.log.Info(ctx, "credential database restored", "file", filepath.Base(path))
	return true
}

// list returns snapshot paths sorted newest first (by modification time,
// then by name, which embeds the timestamp).
func (b *BackupStore) list() []string {
	matches, err := filepath.Glob(filepath.Join(b.dir, "users_backup_*.json"))
	if err != nil {
		return nil
	}

	type entry struct {
		path  string
		mtime time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, entry{path: m, mtime: fi.ModTime()})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].mtime.Equal(entries[j].mtime) {
			return entries[i].mtime.After(entries[j].mtime)
		}
		return entries[i].path > entries[j].path
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths
}

// prune deletes all but the backupKeep most recent snapshots. Individual
// deletion failures are ignored.
func (b *BackupStore) prune() {
	files := b.list()
	if len(files) <= backupKeep {
		return
	}
	for _, f := range files[backupKeep:] {
		_ = os.Remove(f)
	}
}
