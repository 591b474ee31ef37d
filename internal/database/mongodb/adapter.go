// Package mongodb implements the DatabaseAdapter contract on top of the
// official MongoDB Go driver. Ad-hoc queries are JSON documents with a type
// discriminator rather than SQL; see ops.go.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// Adapter is the MongoDB implementation of adapter.DatabaseAdapter.
// Multi-document transactions need a replica set; against a standalone server
// BeginTransaction fails with UnsupportedOperationError.
type Adapter struct {
	cfg    adapter.ConnectionConfig
	state  *adapter.StateTracker
	client *mongo.Client

	txMu    sync.Mutex
	session *mongo.Session
}

// NewAdapter creates a disconnected MongoDB adapter.
func NewAdapter(cfg adapter.ConnectionConfig) *Adapter {
	return &Adapter{
		cfg:   cfg,
		state: adapter.NewStateTracker(dbcapabilities.MongoDB),
	}
}

// Type returns the canonical engine identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.MongoDB
}

// Capabilities returns the engine capability metadata.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.MongoDB)
}

// Status returns the current connection state.
func (a *Adapter) Status() adapter.ConnectionState {
	return a.state.Status()
}

// Connect establishes the client and verifies it with a ping.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.SetState(adapter.StateConnecting)

	opts := options.Client().ApplyURI(uri(a.cfg))
	if a.cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(a.cfg.MaxPoolSize))
	}
	if a.cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(a.cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.MongoDB, a.cfg.Host, a.cfg.Port, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.MongoDB, a.cfg.Host, a.cfg.Port, err)
	}

	a.client = client
	a.state.SetState(adapter.StateConnected)
	return nil
}

// Disconnect aborts any open transaction and tears down the client.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.txMu.Lock()
	if a.session != nil {
		_ = a.session.AbortTransaction(ctx)
		a.session.EndSession(ctx)
		a.session = nil
	}
	a.txMu.Unlock()

	if a.client != nil {
		_ = a.client.Disconnect(ctx)
		a.client = nil
	}
	a.state.SetState(adapter.StateDisconnected)
	return nil
}

// HealthCheck reports whether the server answers a ping.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.state.Status() != adapter.StateConnected || a.client == nil {
		return false
	}
	return a.client.Ping(ctx, nil) == nil
}

// database returns the handle for the configured database.
func (a *Adapter) database() *mongo.Database {
	return a.client.Database(a.cfg.DatabaseName)
}

// BeginTransaction starts a session transaction. MongoDB only supports
// multi-document transactions on replica sets, so the topology is checked
// first via the hello command.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("begin transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.session != nil {
		return adapter.WrapError(dbcapabilities.MongoDB, "begin transaction", adapter.ErrTransactionInProgress)
	}

	replicaSet, err := a.isReplicaSet(ctx)
	if err != nil {
		return adapter.WrapError(dbcapabilities.MongoDB, "begin transaction", err)
	}
	if !replicaSet {
		return adapter.NewUnsupportedOperationError(dbcapabilities.MongoDB, "transactions",
			"requires a replica set deployment")
	}

	session, err := a.client.StartSession()
	if err != nil {
		return adapter.WrapError(dbcapabilities.MongoDB, "begin transaction", err)
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return adapter.WrapError(dbcapabilities.MongoDB, "begin transaction", err)
	}

	a.session = session
	return nil
}

// CommitTransaction commits the open session transaction.
func (a *Adapter) CommitTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("commit transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.session == nil {
		return adapter.WrapError(dbcapabilities.MongoDB, "commit transaction", adapter.ErrNoTransaction)
	}

	err := a.session.CommitTransaction(ctx)
	a.session.EndSession(ctx)
	a.session = nil
	return adapter.WrapError(dbcapabilities.MongoDB, "commit transaction", err)
}

// RollbackTransaction aborts the open session transaction.
func (a *Adapter) RollbackTransaction(ctx context.Context) error {
	if err := a.state.RequireConnected("rollback transaction"); err != nil {
		return err
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.session == nil {
		return adapter.WrapError(dbcapabilities.MongoDB, "rollback transaction", adapter.ErrNoTransaction)
	}

	err := a.session.AbortTransaction(ctx)
	a.session.EndSession(ctx)
	a.session = nil
	return adapter.WrapError(dbcapabilities.MongoDB, "rollback transaction", err)
}

// opContext binds ctx to the open session, if any, so operations issued while
// a transaction is open join it.
func (a *Adapter) opContext(ctx context.Context) context.Context {
	a.txMu.Lock()
	defer a.txMu.Unlock()
	if a.session != nil {
		return mongo.NewSessionContext(ctx, a.session)
	}
	return ctx
}

// isReplicaSet checks the hello command for a replica set name.
func (a *Adapter) isReplicaSet(ctx context.Context) (bool, error) {
	var hello struct {
		SetName string `bson:"setName"`
	}
	err := a.client.Database("admin").
		RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).
		Decode(&hello)
	if err != nil {
		return false, err
	}
	return hello.SetName != "", nil
}

// CreateBackup is not supported in-process: MongoDB backups go through the
// mongodump toolchain.
func (a *Adapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	return "", adapter.NewUnsupportedOperationError(dbcapabilities.MongoDB, "backup",
		"requires the mongodump external toolchain")
}

// RestoreBackup is not supported in-process.
func (a *Adapter) RestoreBackup(ctx context.Context, backupID string) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.MongoDB, "restore",
		"requires the mongorestore external toolchain")
}

// QueryMetrics wall-clock times one operation. MongoDB exposes no uniform
// explain surface across the supported operation types.
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

// uri builds a mongodb:// connection string. An explicit ConnectionString wins.
func uri(cfg adapter.ConnectionConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}
	if cfg.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Username, cfg.Password, cfg.Host, cfg.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port)
}

var _ adapter.DatabaseAdapter = (*Adapter)(nil)
