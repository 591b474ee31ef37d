package mysql

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// QueryMetrics measures one query. EXPLAIN FORMAT=JSON provides the plan (the
// query itself is then executed for wall-clock timing); statements MySQL
// refuses to explain fall back to timing alone.
func (a *Adapter) QueryMetrics(ctx context.Context, query string) (*adapter.PerformanceMetrics, error) {
	if err := a.state.RequireConnected("collect query metrics"); err != nil {
		return nil, err
	}

	var plan json.RawMessage
	var raw string
	if err := a.db.QueryRowContext(ctx, "EXPLAIN FORMAT=JSON "+query).Scan(&raw); err == nil {
		plan = json.RawMessage(raw)
	}

	start := time.Now()
	result, err := a.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	metrics := &adapter.PerformanceMetrics{
		ExecutionTime: time.Since(start),
		Plan:          plan,
	}
	if !result.Failed() {
		rows := result.RowCount
		metrics.RowsReturned = &rows
	}
	return metrics, nil
}
