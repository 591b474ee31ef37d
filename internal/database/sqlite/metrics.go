package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// planStep is one EXPLAIN QUERY PLAN row.
type planStep struct {
	ID     int    `json:"id"`
	Parent int    `json:"parent"`
	Detail string `json:"detail"`
}

// QueryMetrics measures one query. EXPLAIN QUERY PLAN provides the plan steps;
// the query itself is then executed for wall-clock timing.
func (a *Adapter) QueryMetrics(ctx context.Context, query string) (*adapter.PerformanceMetrics, error) {
	if err := a.state.RequireConnected("collect query metrics"); err != nil {
		return nil, err
	}

	var plan json.RawMessage
	if steps, err := a.explain(ctx, query); err == nil && len(steps) > 0 {
		if raw, err := json.Marshal(steps); err == nil {
			plan = raw
		}
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

func (a *Adapter) explain(ctx context.Context, query string) ([]planStep, error) {
	rows, err := a.db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []planStep
	for rows.Next() {
		var s planStep
		var notUsed int
		if err := rows.Scan(&s.ID, &s.Parent, &notUsed, &s.Detail); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
