// Package postgres implements the DatabaseAdapter contract on top of a pgx
// connection pool.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// Adapter is the PostgreSQL implementation of adapter.DatabaseAdapter. One
// instance owns one pgx pool; at most one transaction is open at a time, held
// on a dedicated pooled connection so statements outside the transaction are
// unaffected.
type Adapter struct {
	cfg   adapter.ConnectionConfig
	state *adapter.StateTracker
	pool  *pgxpool.Pool

	txMu   sync.Mutex
	tx     pgx.Tx
	txConn *pgxpool.Conn
}

// NewAdapter creates a disconnected PostgreSQL adapter for the given connection
// configuration.
func NewAdapter(cfg adapter.ConnectionConfig) *Adapter {
	return &Adapter{
		cfg:   cfg,
		state: adapter.NewStateTracker(dbcapabilities.PostgreSQL),
	}
}

// Type returns the canonical engine identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.PostgreSQL
}

// Capabilities returns the engine capability metadata.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.PostgreSQL)
}

// Status returns the current connection state.
func (a *Adapter) Status() adapter.ConnectionState {
	return a.state.Status()
}

// Connect establishes the pgx pool and verifies it with a ping.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.SetState(adapter.StateConnecting)

	poolCfg, err := pgxpool.ParseConfig(connString(a.cfg))
	if err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, a.cfg.Host, a.cfg.Port, err)
	}
	if a.cfg.MaxPoolSize > 0 {
		poolCfg.MaxConns = a.cfg.MaxPoolSize
	}
	if a.cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = a.cfg.IdleTimeout
	}
	if a.cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = a.cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, a.cfg.Host, a.cfg.Port, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, a.cfg.Host, a.cfg.Port, err)
	}

	a.pool = pool
	a.state.SetState(adapter.StateConnected)
	return nil
}

// Disconnect rolls back any open transaction and closes the pool.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.txMu.Lock()
	if a.tx != nil {
		_ = a.tx.Rollback(ctx)
		a.txConn.Release()
		a.tx = nil
		a.txConn = nil
	}
	a.txMu.Unlock()

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	a.state.SetState(adapter.StateDisconnected)
	return nil
}

// HealthCheck reports whether the pool answers a ping.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.state.Status() != adapter.StateConnected || a.pool == nil {
		return false
	}
	return a.pool.Ping(ctx) == nil
}

// ExecuteQuery runs one SQL statement with positional parameters. When a
// transaction is open the statement joins it. Native failures come back inside
// the result, not as a raised error.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error) {
	if err := a.state.RequireConnected("execute query"); err != nil {
		return nil, err
	}

	a.txMu.Lock()
	tx := a.tx
	a.txMu.Unlock()

	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, query, params...)
	} else {
		rows, err = a.pool.Query(ctx, query, params...)
	}
	if err != nil {
		return adapter.ErrorResult(err), nil
	}
	return collectRows(rows), nil
}

// collectRows drains a pgx result set into the uniform QueryResult shape.
func collectRows(rows pgx.Rows) *adapter.QueryResult {
	defer rows.Close()

	descs := rows.FieldDescriptions()
	fields := make([]adapter.FieldInfo, len(descs))
	for i, d := range descs {
		fields[i] = adapter.FieldInfo{Name: d.Name}
	}

	var out []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return adapter.ErrorResult(err)
		}
		row := make(map[string]interface{}, len(descs))
		for i, d := range descs {
			row[d.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return adapter.ErrorResult(err)
	}

	tag := rows.CommandTag()
	result := &adapter.QueryResult{
		Rows:    out,
		Fields:  fields,
		Command: tag.String(),
	}
	if len(out) > 0 || tag.Select() {
		result.RowCount = int64(len(out))
	} else {
		result.RowCount = tag.RowsAffected()
	}
	return result
}

// BeginTransaction opens a transaction on a dedicated pooled connection.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("begin transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx != nil {
		return adapter.WrapError(dbcapabilities.PostgreSQL, "begin transaction", adapter.ErrTransactionInProgress)
	}

	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return adapter.WrapError(dbcapabilities.PostgreSQL, "begin transaction", err)
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		return adapter.WrapError(dbcapabilities.PostgreSQL, "begin transaction", err)
	}

	a.tx = tx
	a.txConn = conn
	return nil
}

// CommitTransaction commits the open transaction and releases its connection.
func (a *Adapter) CommitTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("commit transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx == nil {
		return adapter.WrapError(dbcapabilities.PostgreSQL, "commit transaction", adapter.ErrNoTransaction)
	}

	err := a.tx.Commit(ctx)
	a.txConn.Release()
	a.tx = nil
	a.txConn = nil
	return adapter.WrapError(dbcapabilities.PostgreSQL, "commit transaction", err)
}

// RollbackTransaction rolls back the open transaction and releases its
// connection.
func (a *Adapter) RollbackTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("rollback transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.tx == nil {
		return adapter.WrapError(dbcapabilities.PostgreSQL, "rollback transaction", adapter.ErrNoTransaction)
	}

	err := a.tx.Rollback(ctx)
	a.txConn.Release()
	a.tx = nil
	a.txConn = nil
	return adapter.WrapError(dbcapabilities.PostgreSQL, "rollback transaction", err)
}

// CreateBackup is not supported in-process: logical PostgreSQL backups go
// through the pg_dump toolchain.
func (a *Adapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	return "", adapter.NewUnsupportedOperationError(dbcapabilities.PostgreSQL, "backup",
		"requires the pg_dump external toolchain")
}

// RestoreBackup is not supported in-process; restores go through pg_restore.
func (a *Adapter) RestoreBackup(ctx context.Context, backupID string) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.PostgreSQL, "restore",
		"requires the pg_restore external toolchain")
}

// connString builds a pgx connection string from the discrete config fields.
// An explicit ConnectionString wins.
func connString(cfg adapter.ConnectionConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.DatabaseName,
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	q := url.Values{}
	switch {
	case cfg.SSLMode != "":
		q.Set("sslmode", cfg.SSLMode)
	case cfg.SSL:
		q.Set("sslmode", "require")
	default:
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

var _ adapter.DatabaseAdapter = (*Adapter)(nil)
