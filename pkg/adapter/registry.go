package adapter

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// ConnectionInfo describes one registered connection.
type ConnectionInfo struct {
	ID     string
	Type   dbcapabilities.DatabaseID
	Config ConnectionConfig
}

// ConnectionRegistry is the lookup contract the schema and query services
// consume. It is injected, never a process-wide singleton, so tests can
// substitute an in-memory fake.
type ConnectionRegistry interface {
	// GetAdapter returns the live adapter for a connection id, if present.
	GetAdapter(connectionID string) (DatabaseAdapter, bool)

	// GetConnection returns the metadata for a connection id, if present.
	GetConnection(connectionID string) (*ConnectionInfo, bool)
}

// Registry is the in-memory ConnectionRegistry implementation. It is the sole
// authority for adapter lifetime: creation and disposal of a given connection
// id are serialized behind its lock.
type Registry struct {
	mu          sync.RWMutex
	adapters    map[string]DatabaseAdapter
	connections map[string]*ConnectionInfo
	logger      *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		adapters:    make(map[string]DatabaseAdapter),
		connections: make(map[string]*ConnectionInfo),
		logger:      logger,
	}
}

// Register tracks a constructed adapter under a connection id. Registering an
// id that already exists is an error: dispose of the previous adapter first.
func (r *Registry) Register(connectionID string, a DatabaseAdapter, cfg ConnectionConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[connectionID]; exists {
		return fmt.Errorf("connection %q is already registered", connectionID)
	}

	r.adapters[connectionID] = a
	r.connections[connectionID] = &ConnectionInfo{
		ID:     connectionID,
		Type:   a.Type(),
		Config: cfg,
	}

	r.logger.Info("registered connection",
		zap.String("connection_id", connectionID),
		zap.String("engine", string(a.Type())))
	return nil
}

// Unregister removes a connection from the registry. The caller is responsible
// for disconnecting the adapter.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.adapters, connectionID)
	delete(r.connections, connectionID)
	r.logger.Info("unregistered connection", zap.String("connection_id", connectionID))
}

// GetAdapter returns the live adapter for a connection id, if present.
func (r *Registry) GetAdapter(connectionID string) (DatabaseAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[connectionID]
	return a, ok
}

// GetConnection returns the metadata for a connection id, if present.
func (r *Registry) GetConnection(connectionID string) (*ConnectionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.connections[connectionID]
	return info, ok
}

// List returns the ids of all registered connections.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}

var _ ConnectionRegistry = (*Registry)(nil)
