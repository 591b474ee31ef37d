package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// CreateBackup writes a consistent copy of the database with VACUUM INTO and
// returns the backup file path. In-memory databases are backed up too; they
// just cannot be restored in place.
func (a *Adapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	if err := a.state.RequireConnected("create backup"); err != nil {
		return "", err
	}

	target := backupPath(a.path, cfg)
	// VACUUM INTO refuses to overwrite.
	if _, err := os.Stat(target); err == nil {
		return "", adapter.WrapError(dbcapabilities.SQLite, "create backup",
			fmt.Errorf("backup target %q already exists", target))
	}

	if _, err := a.db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return "", adapter.WrapError(dbcapabilities.SQLite, "create backup", err)
	}
	return target, nil
}

// RestoreBackup replaces the database file with a backup produced by
// CreateBackup. The connection is closed for the copy and reopened afterwards.
func (a *Adapter) RestoreBackup(ctx context.Context, backupID string) error {
	if err := a.state.RequireConnected("restore backup"); err != nil {
		return err
	}
	if isMemoryPath(a.path) {
		return adapter.NewUnsupportedOperationError(dbcapabilities.SQLite, "restore",
			"in-memory databases cannot be restored in place")
	}

	data, err := os.ReadFile(backupID)
	if err != nil {
		return adapter.WrapError(dbcapabilities.SQLite, "restore backup", err)
	}

	a.txMu.Lock()
	if a.tx != nil {
		_ = a.tx.Rollback()
		a.tx = nil
	}
	a.txMu.Unlock()
	_ = a.db.Close()
	a.db = nil
	a.state.SetState(adapter.StateDisconnected)

	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.WrapError(dbcapabilities.SQLite, "restore backup", err)
	}

	db, err := a.open(ctx)
	if err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.SQLite, a.path, 0, err)
	}
	a.db = db
	a.state.SetState(adapter.StateConnected)
	return nil
}

// backupPath resolves the backup target from the config, defaulting to a
// timestamped sibling of the database file.
func backupPath(dbPath string, cfg adapter.BackupConfig) string {
	dir := cfg.Destination
	if dir == "" && !isMemoryPath(dbPath) {
		dir = filepath.Dir(dbPath)
	}

	name := cfg.Name
	if name == "" {
		base := "database"
		if !isMemoryPath(dbPath) {
			base = strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath))
		}
		name = fmt.Sprintf("%s-%s.backup.db", base, time.Now().UTC().Format("20060102T150405Z"))
	}
	return filepath.Join(dir, name)
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
