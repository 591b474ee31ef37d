// Package sqlite implements the DatabaseAdapter contract on top of the
// modernc.org/sqlite pure-Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Algodons/algo-dbcore/internal/database/common"
	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// Adapter is the SQLite implementation of adapter.DatabaseAdapter. The
// database "name" is a filesystem path, or ":memory:" for an in-memory
// database. SQLite is a single-writer engine, so the pool is pinned to one
// connection; the in-memory case additionally depends on it, since every new
// connection would otherwise see a fresh empty database.
type Adapter struct {
	cfg   adapter.ConnectionConfig
	state *adapter.StateTracker
	db    *sql.DB
	path  string

	txMu sync.Mutex
	tx   *sql.Tx
}

// NewAdapter creates a disconnected SQLite adapter. cfg.DatabaseName carries
// the database file path.
func NewAdapter(cfg adapter.ConnectionConfig) *Adapter {
	return &Adapter{
		cfg:   cfg,
		state: adapter.NewStateTracker(dbcapabilities.SQLite),
		path:  cfg.DatabaseName,
	}
}

// Type returns the canonical engine identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.SQLite
}

// Capabilities returns the engine capability metadata.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.SQLite)
}

// Status returns the current connection state.
func (a *Adapter) Status() adapter.ConnectionState {
	return a.state.Status()
}

// Connect opens the database file and verifies it with a ping.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.SetState(adapter.StateConnecting)

	if a.path == "" {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.SQLite, a.path, 0,
			adapter.ErrInvalidConfiguration)
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

// open opens and pings the database file at a.path.
func (a *Adapter) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Disconnect rolls back any open transaction and closes the database.
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

// HealthCheck reports whether the database answers a ping.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.state.Status() != adapter.StateConnected || a.db == nil {
		return false
	}
	return a.db.PingContext(ctx) == nil
}

// ExecuteQuery runs one SQL statement with positional parameters. Native
// failures come back inside the result.
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

// BeginTransaction opens a transaction.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("begin transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx != nil {
		return adapter.WrapError(dbcapabilities.SQLite, "begin transaction", adapter.ErrTransactionInProgress)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return adapter.WrapError(dbcapabilities.SQLite, "begin transaction", err)
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
		return adapter.WrapError(dbcapabilities.SQLite, "commit transaction", adapter.ErrNoTransaction)
	}

	err := a.tx.Commit()
	a.tx = nil
	return adapter.WrapError(dbcapabilities.SQLite, "commit transaction", err)
}

// RollbackTransaction rolls back the open transaction.
func (a *Adapter) RollbackTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("rollback transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx == nil {
		return adapter.WrapError(dbcapabilities.SQLite, "rollback transaction", adapter.ErrNoTransaction)
	}

	err := a.tx.Rollback()
	a.tx = nil
	return adapter.WrapError(dbcapabilities.SQLite, "rollback transaction", err)
}

var _ adapter.DatabaseAdapter = (*Adapter)(nil)
