// Package redis implements the DatabaseAdapter contract on top of go-redis.
// Ad-hoc queries are JSON command envelopes; see ops.go. Transactions map to
// MULTI/EXEC pipelines, and key namespaces stand in for tables.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// Adapter is the Redis implementation of adapter.DatabaseAdapter.
type Adapter struct {
	cfg    adapter.ConnectionConfig
	state  *adapter.StateTracker
	client *redis.Client

	txMu sync.Mutex
	pipe redis.Pipeliner
}

// NewAdapter creates a disconnected Redis adapter. cfg.DatabaseName, when
// numeric, selects the logical database.
func NewAdapter(cfg adapter.ConnectionConfig) *Adapter {
	return &Adapter{
		cfg:   cfg,
		state: adapter.NewStateTracker(dbcapabilities.Redis),
	}
}

// Type returns the canonical engine identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.Redis
}

// Capabilities returns the engine capability metadata.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.Redis)
}

// Status returns the current connection state.
func (a *Adapter) Status() adapter.ConnectionState {
	return a.state.Status()
}

// Connect establishes the client and verifies it with PING.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.SetState(adapter.StateConnecting)

	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port),
		Username: a.cfg.Username,
		Password: a.cfg.Password,
	}
	if a.cfg.ConnectionString != "" {
		parsed, err := redis.ParseURL(a.cfg.ConnectionString)
		if err != nil {
			a.state.SetState(adapter.StateError)
			return adapter.NewConnectionError(dbcapabilities.Redis, a.cfg.Host, a.cfg.Port, err)
		}
		opts = parsed
	} else {
		if db, err := logicalDB(a.cfg.DatabaseName); err == nil {
			opts.DB = db
		}
		if a.cfg.MaxPoolSize > 0 {
			opts.PoolSize = int(a.cfg.MaxPoolSize)
		}
		if a.cfg.ConnectTimeout > 0 {
			opts.DialTimeout = a.cfg.ConnectTimeout
		}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.Redis, a.cfg.Host, a.cfg.Port, err)
	}

	a.client = client
	a.state.SetState(adapter.StateConnected)
	return nil
}

// Disconnect discards any open pipeline and closes the client.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.txMu.Lock()
	if a.pipe != nil {
		a.pipe.Discard()
		a.pipe = nil
	}
	a.txMu.Unlock()

	if a.client != nil {
		_ = a.client.Close()
		a.client = nil
	}
	a.state.SetState(adapter.StateDisconnected)
	return nil
}

// HealthCheck reports whether the server answers PING.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.state.Status() != adapter.StateConnected || a.client == nil {
		return false
	}
	return a.client.Ping(ctx).Err() == nil
}

// BeginTransaction opens a MULTI/EXEC pipeline. Commands issued through
// ExecuteQuery while the pipeline is open are queued, not executed.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("begin transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.pipe != nil {
		return adapter.WrapError(dbcapabilities.Redis, "begin transaction", adapter.ErrTransactionInProgress)
	}
	a.pipe = a.client.TxPipeline()
	return nil
}

// CommitTransaction executes the queued pipeline atomically.
func (a *Adapter) CommitTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("commit transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.pipe == nil {
		return adapter.WrapError(dbcapabilities.Redis, "commit transaction", adapter.ErrNoTransaction)
	}

	_, err := a.pipe.Exec(ctx)
	a.pipe = nil
	if err == redis.Nil {
		err = nil
	}
	return adapter.WrapError(dbcapabilities.Redis, "commit transaction", err)
}

// RollbackTransaction discards the queued pipeline without executing it.
func (a *Adapter) RollbackTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("rollback transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.pipe == nil {
		return adapter.WrapError(dbcapabilities.Redis, "rollback transaction", adapter.ErrNoTransaction)
	}

	a.pipe.Discard()
	a.pipe = nil
	return nil
}

// CreateBackup triggers BGSAVE and returns an identifier derived from the
// resulting LASTSAVE timestamp. The RDB file lands in the server's configured
// dump directory.
func (a *Adapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	if err := a.state.RequireConnected("create backup"); err != nil {
		return "", err
	}

	if err := a.client.BgSave(ctx).Err(); err != nil {
		return "", adapter.WrapError(dbcapabilities.Redis, "create backup", err)
	}
	lastSave, err := a.client.LastSave(ctx).Result()
	if err != nil {
		return "", adapter.WrapError(dbcapabilities.Redis, "create backup", err)
	}
	return fmt.Sprintf("bgsave-%d", lastSave), nil
}

// RestoreBackup is not supported: RDB restore means replacing the dump file
// and restarting the server, which is outside the reach of a client.
func (a *Adapter) RestoreBackup(ctx context.Context, backupID string) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Redis, "restore",
		"requires replacing the RDB file and restarting the server")
}

// QueryMetrics wall-clock times one command envelope.
func (a *Adapter) QueryMetrics(ctx context.Context, query string) (*adapter.PerformanceMetrics, error) {
	if err := a.state.RequireConnected("collect query metrics"); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := a.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	metrics := &adapter.PerformanceMetrics{ExecutionTime: time.Since(start)}
	if !result.Failed() {
		rows := result.RowCount
		metrics.RowsReturned = &rows
	}
	return metrics, nil
}

// logicalDB parses a numeric database name into a logical database index.
func logicalDB(name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	var db int
	if _, err := fmt.Sscanf(name, "%d", &db); err != nil {
		return 0, err
	}
	return db, nil
}

var _ adapter.DatabaseAdapter = (*Adapter)(nil)
