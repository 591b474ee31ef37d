// Package query executes ad-hoc queries against registered connections,
// keeping a bounded per-connection history and Prometheus counters.
package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/config"
	"github.com/Algodons/algo-dbcore/pkg/logging"
)

// Service resolves connections through the registry and runs queries on the
// adapters. Every execution, successful or failed, lands in the history.
type Service struct {
	registry adapter.ConnectionRegistry
	history  *history
	metrics  *Metrics
	logger   *zap.Logger
}

// NewService creates a query service. cfg, metrics, and logger may each be
// nil; defaults apply.
func NewService(registry adapter.ConnectionRegistry, cfg *config.Config, metrics *Metrics, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Service{
		registry: registry,
		history:  newHistory(cfg.History.Limit),
		metrics:  metrics,
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

// Execute runs one query on a connection, records it in the history, and
// returns the result. Native failures ride inside the result; only unknown
// connections and the not-connected precondition raise.
func (s *Service) Execute(ctx context.Context, connectionID, query string, params ...interface{}) (*adapter.QueryResult, error) {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := a.ExecuteQuery(ctx, query, params...)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	entry := HistoryEntry{
		ConnectionID: connectionID,
		Query:        query,
		Duration:     elapsed,
		RowCount:     result.RowCount,
		Error:        result.Error,
	}
	s.history.record(entry)
	s.metrics.observe(string(a.Type()), elapsed, result.Failed())

	if result.Failed() {
		s.logger.Debug("query failed",
			zap.String("connection_id", connectionID),
			zap.String("engine", string(a.Type())),
			zap.Duration("duration", elapsed),
			zap.String("error", result.Error))
	} else {
		s.logger.Debug("query executed",
			zap.String("connection_id", connectionID),
			zap.String("engine", string(a.Type())),
			zap.Duration("duration", elapsed),
			zap.Int64("rows", result.RowCount))
	}
	return result, nil
}

// History returns the connection's recorded queries, oldest first.
func (s *Service) History(connectionID string) []HistoryEntry {
	return s.history.forConnection(connectionID)
}

// ClearHistory drops the connection's recorded queries.
func (s *Service) ClearHistory(connectionID string) {
	s.history.clear(connectionID)
}

// QueryMetrics returns best-effort performance metrics for one query.
func (s *Service) QueryMetrics(ctx context.Context, connectionID, query string) (*adapter.PerformanceMetrics, error) {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return nil, err
	}
	return a.QueryMetrics(ctx, query)
}

// BeginTransaction opens a transaction on a connection.
func (s *Service) BeginTransaction(ctx context.Context, connectionID string) error {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return err
	}
	return a.BeginTransaction(ctx)
}

// CommitTransaction commits the open transaction on a connection.
func (s *Service) CommitTransaction(ctx context.Context, connectionID string) error {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return err
	}
	return a.CommitTransaction(ctx)
}

// RollbackTransaction rolls back the open transaction on a connection.
func (s *Service) RollbackTransaction(ctx context.Context, connectionID string) error {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return err
	}
	return a.RollbackTransaction(ctx)
}
