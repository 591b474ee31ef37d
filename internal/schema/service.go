// Package schema provides schema discovery across all registered connections
// and DDL generation for the SQL engines.
package schema

import (
	"context"

	"go.uber.org/zap"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
	"github.com/Algodons/algo-dbcore/pkg/logging"
)

// DatabaseSchema is the full discovered schema of one connection.
type DatabaseSchema struct {
	ConnectionID string                    `json:"connectionId"`
	Engine       dbcapabilities.DatabaseID `json:"engine"`
	Tables       []adapter.TableInfo       `json:"tables"`
}

// Service resolves connections through the registry and exposes schema
// discovery and DDL on top of the adapters.
type Service struct {
	registry adapter.ConnectionRegistry
	logger   *zap.Logger
}

// NewService creates a schema service. A nil logger disables logging.
func NewService(registry adapter.ConnectionRegistry, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		logger:   logging.OrNop(logger),
	}
}

// adapterFor resolves the adapter for a connection id.
func (s *Service) adapterFor(connectionID string) (adapter.DatabaseAdapter, error) {
	a, ok := s.registry.GetAdapter(connectionID)
	if !ok {
		return nil, adapter.NewNotFoundError("connection", connectionID)
	}
	return a, nil
}

// ListTables returns the table names of one connection.
func (s *Service) ListTables(ctx context.Context, connectionID string) ([]string, error) {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return nil, err
	}
	return a.ListTables(ctx)
}

// GetTableSchema returns the schema of one table of one connection.
func (s *Service) GetTableSchema(ctx context.Context, connectionID, tableName string) (*adapter.TableInfo, error) {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return nil, err
	}
	return a.GetTableSchema(ctx, tableName)
}

// DatabaseSchema discovers the schema of every table of one connection. A
// table whose introspection fails is logged and skipped, so one broken table
// does not hide the rest of the database.
func (s *Service) DatabaseSchema(ctx context.Context, connectionID string) (*DatabaseSchema, error) {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return nil, err
	}

	tables, err := a.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	result := &DatabaseSchema{
		ConnectionID: connectionID,
		Engine:       a.Type(),
	}
	for _, name := range tables {
		info, err := a.GetTableSchema(ctx, name)
		if err != nil {
			s.logger.Warn("skipping table with failed introspection",
				zap.String("connection_id", connectionID),
				zap.String("table", name),
				zap.Error(err))
			continue
		}
		result.Tables = append(result.Tables, *info)
	}
	return result, nil
}
