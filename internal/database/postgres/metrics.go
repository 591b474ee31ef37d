package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// explainRoot is the top-level shape of EXPLAIN (ANALYZE, FORMAT JSON) output.
type explainRoot struct {
	Plan          json.RawMessage `json:"Plan"`
	PlanningTime  float64         `json:"Planning Time"`
	ExecutionTime float64         `json:"Execution Time"`
}

type explainPlan struct {
	ActualRows int64 `json:"Actual Rows"`
}

// QueryMetrics measures one query with EXPLAIN (ANALYZE, FORMAT JSON). The
// query is actually executed. Statements the planner refuses to explain fall
// back to plain wall-clock timing.
func (a *Adapter) QueryMetrics(ctx context.Context, query string) (*adapter.PerformanceMetrics, error) {
	if err := a.state.RequireConnected("collect query metrics"); err != nil {
		return nil, err
	}

	start := time.Now()
	var raw []byte
	if err := a.pool.QueryRow(ctx, "EXPLAIN (ANALYZE, FORMAT JSON) "+query).Scan(&raw); err != nil {
		return a.wallClockMetrics(ctx, query)
	}
	elapsed := time.Since(start)

	var roots []explainRoot
	if err := json.Unmarshal(raw, &roots); err != nil || len(roots) == 0 {
		return &adapter.PerformanceMetrics{ExecutionTime: elapsed}, nil
	}
	root := roots[0]

	metrics := &adapter.PerformanceMetrics{
		ExecutionTime: time.Duration(root.ExecutionTime * float64(time.Millisecond)),
		Plan:          root.Plan,
	}
	planning := time.Duration(root.PlanningTime * float64(time.Millisecond))
	metrics.PlanningTime = &planning

	var plan explainPlan
	if err := json.Unmarshal(root.Plan, &plan); err == nil {
		rows := plan.ActualRows
		metrics.RowsReturned = &rows
	}
	return metrics, nil
}

// wallClockMetrics runs the query and reports elapsed time only.
func (a *Adapter) wallClockMetrics(ctx context.Context, query string) (*adapter.PerformanceMetrics, error) {
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
