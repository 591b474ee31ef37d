// Package adaptertest provides in-memory fakes of the adapter contracts for
// testing the services without live storage engines.
package adaptertest

import (
	"context"
	"time"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// FakeAdapter is a scriptable DatabaseAdapter. Zero value behaves like a
// healthy, connected SQL engine returning empty results.
type FakeAdapter struct {
	Engine dbcapabilities.DatabaseID

	// ConnectErr, when set, is returned by Connect (state then reports ERROR).
	ConnectErr error

	// QueryResult is returned by ExecuteQuery when QueryFn is nil.
	QueryResult *adapter.QueryResult

	// QueryFn, when set, handles ExecuteQuery.
	QueryFn func(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error)

	// QueryDelay is slept inside ExecuteQuery to exercise wall-clock timing.
	QueryDelay time.Duration

	// Tables and Schemas drive ListTables / GetTableSchema. A nil entry in
	// Schemas makes GetTableSchema fail for that table.
	Tables  []string
	Schemas map[string]*adapter.TableInfo

	// Metrics is returned by QueryMetrics.
	Metrics *adapter.PerformanceMetrics

	// Recorded calls.
	ExecutedQueries []string
	BeginCalls      int
	CommitCalls     int
	RollbackCalls   int

	state *adapter.StateTracker
}

// NewFake returns a connected fake for the given engine.
func NewFake(engine dbcapabilities.DatabaseID) *FakeAdapter {
	f := &FakeAdapter{Engine: engine, state: adapter.NewStateTracker(engine)}
	f.state.SetState(adapter.StateConnected)
	return f
}

// NewDisconnectedFake returns a fake that has not been connected.
func NewDisconnectedFake(engine dbcapabilities.DatabaseID) *FakeAdapter {
	return &FakeAdapter{Engine: engine, state: adapter.NewStateTracker(engine)}
}

func (f *FakeAdapter) Type() dbcapabilities.DatabaseID { return f.Engine }

func (f *FakeAdapter) Capabilities() dbcapabilities.Capability {
	if capability, ok := dbcapabilities.Get(f.Engine); ok {
		return capability
	}
	return dbcapabilities.Capability{ID: f.Engine, Name: string(f.Engine)}
}

func (f *FakeAdapter) Connect(ctx context.Context) error {
	f.state.SetState(adapter.StateConnecting)
	if f.ConnectErr != nil {
		f.state.SetState(adapter.StateError)
		return f.ConnectErr
	}
	f.state.SetState(adapter.StateConnected)
	return nil
}

func (f *FakeAdapter) Disconnect(ctx context.Context) error {
	f.state.SetState(adapter.StateDisconnected)
	return nil
}

func (f *FakeAdapter) HealthCheck(ctx context.Context) bool {
	return f.state.Status() == adapter.StateConnected
}

func (f *FakeAdapter) Status() adapter.ConnectionState { return f.state.Status() }

func (f *FakeAdapter) ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error) {
	if err := f.state.RequireConnected("execute query"); err != nil {
		return nil, err
	}
	f.ExecutedQueries = append(f.ExecutedQueries, query)
	if f.QueryDelay > 0 {
		time.Sleep(f.QueryDelay)
	}
	if f.QueryFn != nil {
		return f.QueryFn(ctx, query, params...)
	}
	if f.QueryResult != nil {
		return f.QueryResult, nil
	}
	return &adapter.QueryResult{}, nil
}

func (f *FakeAdapter) ListTables(ctx context.Context) ([]string, error) {
	if err := f.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}
	return f.Tables, nil
}

func (f *FakeAdapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := f.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}
	if schema, ok := f.Schemas[tableName]; ok && schema != nil {
		return schema, nil
	}
	return nil, adapter.NewSchemaError(f.Engine, tableName, adapter.ErrNotFound)
}

func (f *FakeAdapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	if err := f.state.RequireConnected("create backup"); err != nil {
		return "", err
	}
	return "fake-backup", nil
}

func (f *FakeAdapter) RestoreBackup(ctx context.Context, backupID string) error {
	return f.state.RequireConnected("restore backup")
}

func (f *FakeAdapter) QueryMetrics(ctx context.Context, query string) (*adapter.PerformanceMetrics, error) {
	if err := f.state.RequireConnected("collect query metrics"); err != nil {
		return nil, err
	}
	if f.Metrics != nil {
		return f.Metrics, nil
	}
	return &adapter.PerformanceMetrics{}, nil
}

func (f *FakeAdapter) BeginTransaction(ctx context.Context) error {
	if err := f.state.RequireConnected("begin transaction"); err != nil {
		return err
	}
	f.BeginCalls++
	return nil
}

func (f *FakeAdapter) CommitTransaction(ctx context.Context) error {
	if err := f.state.RequireConnected("commit transaction"); err != nil {
		return err
	}
	f.CommitCalls++
	return nil
}

func (f *FakeAdapter) RollbackTransaction(ctx context.Context) error {
	if err := f.state.RequireConnected("rollback transaction"); err != nil {
		return err
	}
	f.RollbackCalls++
	return nil
}

var _ adapter.DatabaseAdapter = (*FakeAdapter)(nil)

// FakeRegistry is a map-backed ConnectionRegistry.
type FakeRegistry struct {
	Adapters map[string]adapter.DatabaseAdapter
	Infos    map[string]*adapter.ConnectionInfo
}

// NewFakeRegistry returns an empty fake registry.
func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		Adapters: make(map[string]adapter.DatabaseAdapter),
		Infos:    make(map[string]*adapter.ConnectionInfo),
	}
}

// Add registers an adapter under a connection id.
func (r *FakeRegistry) Add(connectionID string, a adapter.DatabaseAdapter) {
	r.Adapters[connectionID] = a
	r.Infos[connectionID] = &adapter.ConnectionInfo{ID: connectionID, Type: a.Type()}
}

func (r *FakeRegistry) GetAdapter(connectionID string) (adapter.DatabaseAdapter, bool) {
	a, ok := r.Adapters[connectionID]
	return a, ok
}

func (r *FakeRegistry) GetConnection(connectionID string) (*adapter.ConnectionInfo, bool) {
	info, ok := r.Infos[connectionID]
	return info, ok
}

var _ adapter.ConnectionRegistry = (*FakeRegistry)(nil)
