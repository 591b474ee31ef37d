// Package adapter provides the unified interface for all database adapters.
// This package defines the contracts that engine-specific implementations must
// follow, the shared value types they exchange, and the error taxonomy they
// report through.
package adapter

import (
	"context"

	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// DatabaseAdapter is the uniform contract every storage engine adapter
// satisfies. One adapter instance serves exactly one logical connection; the
// native handle (pool/client) is created in Connect and torn down in
// Disconnect.
//
// Error asymmetry: connection lifecycle, schema, backup, metrics, and
// transaction methods raise errors; ExecuteQuery carries native query failures
// inside QueryResult.Error and only raises for the not-connected precondition.
// Callers branch on this asymmetry, so implementations must preserve it.
type DatabaseAdapter interface {
	// Type returns the canonical engine identifier.
	Type() dbcapabilities.DatabaseID

	// Capabilities returns the capability metadata for this engine.
	Capabilities() dbcapabilities.Capability

	// Connect establishes the native connection. It sets the state to
	// CONNECTING before the handshake, CONNECTED on success, and ERROR on
	// failure (never leaving the state at CONNECTING), raising a
	// ConnectionError that carries the native cause.
	Connect(ctx context.Context) error

	// Disconnect tears down the native handle and sets the state to DISCONNECTED.
	Disconnect(ctx context.Context) error

	// HealthCheck reports whether the engine answers a liveness probe.
	HealthCheck(ctx context.Context) bool

	// Status returns the current connection state.
	Status() ConnectionState

	// ExecuteQuery runs one ad-hoc query. For SQL engines the query is a SQL
	// string with positional parameters; for the others it is a serialized
	// tagged operation. Native failures are returned inside the result.
	ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*QueryResult, error)

	// ListTables returns the names of all tables, collections, classes,
	// indexes, or keys, depending on the engine's paradigm.
	ListTables(ctx context.Context) ([]string, error)

	// GetTableSchema returns the normalized schema of one table. Engines
	// without a fixed schema synthesize one (by sampling, key classification,
	// or index definition).
	GetTableSchema(ctx context.Context, tableName string) (*TableInfo, error)

	// CreateBackup produces a backup and returns its identifier: a file path
	// for file-based engines, a job or collection identifier for engines with
	// a native backup API. Engines requiring an external dump toolchain fail
	// with UnsupportedOperationError naming the tool.
	CreateBackup(ctx context.Context, cfg BackupConfig) (string, error)

	// RestoreBackup restores a backup previously produced by CreateBackup.
	RestoreBackup(ctx context.Context, backupID string) error

	// QueryMetrics returns best-effort performance metrics for one query,
	// using the engine's native explain facility where available and
	// wall-clock measurement otherwise.
	QueryMetrics(ctx context.Context, query string) (*PerformanceMetrics, error)

	// BeginTransaction opens a transaction. Only one transaction may be open
	// per adapter instance; a second call fails with ErrTransactionInProgress.
	// Engines without transaction support fail with UnsupportedOperationError.
	BeginTransaction(ctx context.Context) error

	// CommitTransaction commits the open transaction.
	CommitTransaction(ctx context.Context) error

	// RollbackTransaction rolls back the open transaction.
	RollbackTransaction(ctx context.Context) error
}
