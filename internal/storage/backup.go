package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const snapshotPrefix = "cards_"

// SnapshotInfo describes a card cache snapshot on disk.
type SnapshotInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// SnapshotDir returns the default snapshot directory for a database path.
func SnapshotDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

// Snapshot copies the card cache into dir with VACUUM INTO and verifies
// the copy. An empty dir uses SnapshotDir. The returned path names the
// new snapshot.
func (db *DB) Snapshot(ctx context.Context, dir string) (string, error) {
	if db.path == memoryPath {
		return "", fmt.Errorf("cannot snapshot an in-memory database")
	}
	if dir == "" {
		dir = SnapshotDir(db.path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, snapshotPrefix+time.Now().UTC().Format("20060102_150405.000")+".db")
	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := VerifySnapshot(ctx, path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("snapshot verification failed: %w", err)
	}
	return path, nil
}

// VerifySnapshot checks that path is a readable SQLite database holding
// the card cache table.
func VerifySnapshot(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var result string
	if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to check snapshot: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}

	var n int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM cached_cards").Scan(&n); err != nil {
		return fmt.Errorf("snapshot has no card cache: %w", err)
	}
	return nil
}

// ListSnapshots returns the snapshots in dir, newest first. A missing
// directory yields an empty list.
func ListSnapshots(dir string) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []SnapshotInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	snapshots := make([]SnapshotInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || filepath.Ext(name) != ".db" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, SnapshotInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// Names embed the UTC timestamp.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name > snapshots[j].Name
	})
	return snapshots, nil
}
