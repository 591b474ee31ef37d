// Package mysql implements the DatabaseAdapter contract on top of database/sql
// with the go-sql-driver driver.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/go-sql-driver/mysql"

	"github.com/Algodons/algo-dbcore/internal/database/common"
	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// Adapter is the MySQL implementation of adapter.DatabaseAdapter. database/sql
// pools connections internally; the open transaction, when present, pins its
// own connection inside *sql.Tx.
type Adapter struct {
	cfg   adapter.ConnectionConfig
	state *adapter.StateTracker
	db    *sql.DB

	txMu sync.Mutex
	tx   *sql.Tx
}

// NewAdapter creates a disconnected MySQL adapter for the given connection
// configuration.
func NewAdapter(cfg adapter.ConnectionConfig) *Adapter {
	return &Adapter{
		cfg:   cfg,
		state: adapter.NewStateTracker(dbcapabilities.MySQL),
	}
}

// Type returns the canonical engine identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.MySQL
}

// Capabilities returns the engine capability metadata.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.MySQL)
}

// Status returns the current connection state.
func (a *Adapter) Status() adapter.ConnectionState {
	return a.state.Status()
}

// Connect opens the sql.DB pool and verifies it with a ping.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.SetState(adapter.StateConnecting)

	db, err := sql.Open("mysql", dsn(a.cfg))
	if err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.MySQL, a.cfg.Host, a.cfg.Port, err)
	}
	if a.cfg.MaxPoolSize > 0 {
		db.SetMaxOpenConns(int(a.cfg.MaxPoolSize))
	}
	if a.cfg.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(a.cfg.IdleTimeout)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.MySQL, a.cfg.Host, a.cfg.Port, err)
	}

	a.db = db
	a.state.SetState(adapter.StateConnected)
	return nil
}

// Disconnect rolls back any open transaction and closes the pool.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.txMu.Lock()
	if a.tx != nil {
		_ = a.tx.Rollback()
		a.tx = nil
	}
	a.txMu.Unlock()

	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	a.state.SetState(adapter.StateDisconnected)
	return nil
}

// HealthCheck reports whether the server answers a ping.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.state.Status() != adapter.StateConnected || a.db == nil {
		return false
	}
	return a.db.PingContext(ctx) == nil
}

// ExecuteQuery runs one SQL statement with positional parameters. Statements
// that produce a result set go through Query; everything else goes through
// Exec so the affected-row count is available. Native failures come back
// inside the result.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error) {
	if err := a.state.RequireConnected("execute query"); err != nil {
		return nil, err
	}

	a.txMu.Lock()
	tx := a.tx
	a.txMu.Unlock()

	verb := common.StatementVerb(query)
	if !common.ReturnsRows(verb) {
		var res sql.Result
		var err error
		if tx != nil {
			res, err = tx.ExecContext(ctx, query, params...)
		} else {
			res, err = a.db.ExecContext(ctx, query, params...)
		}
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		affected, _ := res.RowsAffected()
		return &adapter.QueryResult{RowCount: affected, Command: verb}, nil
	}

	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.QueryContext(ctx, query, params...)
	} else {
		rows, err = a.db.QueryContext(ctx, query, params...)
	}
	if err != nil {
		return adapter.ErrorResult(err), nil
	}
	return common.CollectSQLRows(rows, verb), nil
}

// BeginTransaction opens a transaction on a dedicated connection.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("begin transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx != nil {
		return adapter.WrapError(dbcapabilities.MySQL, "begin transaction", adapter.ErrTransactionInProgress)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return adapter.WrapError(dbcapabilities.MySQL, "begin transaction", err)
	}
	a.tx = tx
	return nil
}

// CommitTransaction commits the open transaction.
func (a *Adapter) CommitTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("commit transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx == nil {
		return adapter.WrapError(dbcapabilities.MySQL, "commit transaction", adapter.ErrNoTransaction)
	}

	err := a.tx.Commit()
	a.tx = nil
	return adapter.WrapError(dbcapabilities.MySQL, "commit transaction", err)
}

// RollbackTransaction rolls back the open transaction.
func (a *Adapter) RollbackTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("rollback transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx == nil {
		return adapter.WrapError(dbcapabilities.MySQL, "rollback transaction", adapter.ErrNoTransaction)
	}

	err := a.tx.Rollback()
	a.tx = nil
	return adapter.WrapError(dbcapabilities.MySQL, "rollback transaction", err)
}

// CreateBackup is not supported in-process: logical MySQL backups go through
// the mysqldump toolchain.
func (a *Adapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	return "", adapter.NewUnsupportedOperationError(dbcapabilities.MySQL, "backup",
		"requires the mysqldump external toolchain")
}

// RestoreBackup is not supported in-process.
func (a *Adapter) RestoreBackup(ctx context.Context, backupID string) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.MySQL, "restore",
		"requires the mysql client external toolchain")
}

// dsn builds a go-sql-driver DSN from the discrete config fields. An explicit
// ConnectionString wins.
func dsn(cfg adapter.ConnectionConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.DatabaseName
	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	if cfg.SSL {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN()
}

var _ adapter.DatabaseAdapter = (*Adapter)(nil)
