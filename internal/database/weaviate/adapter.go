// Package weaviate implements the DatabaseAdapter contract against the
// Weaviate REST and GraphQL APIs. Object lifecycle goes through /v1/objects,
// reads through /v1/graphql, and backups through the filesystem backup module.
package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// Adapter is the Weaviate implementation of adapter.DatabaseAdapter.
type Adapter struct {
	cfg        adapter.ConnectionConfig
	state      *adapter.StateTracker
	httpClient *http.Client
	baseURL    string
}

// NewAdapter creates a disconnected Weaviate adapter.
func NewAdapter(cfg adapter.ConnectionConfig) *Adapter {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		cfg:        cfg,
		state:      adapter.NewStateTracker(dbcapabilities.Weaviate),
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL(cfg),
	}
}

// Type returns the canonical engine identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.Weaviate
}

// Capabilities returns the engine capability metadata.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.Weaviate)
}

// Status returns the current connection state.
func (a *Adapter) Status() adapter.ConnectionState {
	return a.state.Status()
}

// Connect verifies the server through its readiness endpoint.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.SetState(adapter.StateConnecting)

	if err := a.doJSON(ctx, http.MethodGet, a.baseURL+"/v1/.well-known/ready", nil, nil); err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.Weaviate, a.cfg.Host, a.cfg.Port, err)
	}

	a.state.SetState(adapter.StateConnected)
	return nil
}

// Disconnect marks the adapter disconnected. HTTP needs no teardown.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.state.SetState(adapter.StateDisconnected)
	return nil
}

// HealthCheck probes the readiness endpoint.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.state.Status() != adapter.StateConnected {
		return false
	}
	return a.doJSON(ctx, http.MethodGet, a.baseURL+"/v1/.well-known/ready", nil, nil) == nil
}

// BeginTransaction is not supported: the Weaviate API has no transaction
// concept.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Weaviate, "transactions", "")
}

// CommitTransaction is not supported.
func (a *Adapter) CommitTransaction(ctx context.Context) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Weaviate, "transactions", "")
}

// RollbackTransaction is not supported.
func (a *Adapter) RollbackTransaction(ctx context.Context) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Weaviate, "transactions", "")
}

// backupStatus is the response shape of the backup endpoints.
type backupStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// CreateBackup starts a filesystem backup and returns the backup id. The
// backup runs server-side; the id can be polled or passed to RestoreBackup.
func (a *Adapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	if err := a.state.RequireConnected("create backup"); err != nil {
		return "", err
	}

	id := cfg.Name
	if id == "" {
		id = fmt.Sprintf("backup-%s", time.Now().UTC().Format("20060102t150405z"))
	}
	var status backupStatus
	body := map[string]interface{}{"id": id}
	if err := a.doJSON(ctx, http.MethodPost, a.baseURL+"/v1/backups/filesystem", body, &status); err != nil {
		return "", adapter.WrapError(dbcapabilities.Weaviate, "create backup", err)
	}
	if status.Error != "" {
		return "", adapter.WrapError(dbcapabilities.Weaviate, "create backup", fmt.Errorf("%s", status.Error))
	}
	if status.ID != "" {
		id = status.ID
	}
	return id, nil
}

// RestoreBackup starts a server-side restore of a filesystem backup.
func (a *Adapter) RestoreBackup(ctx context.Context, backupID string) error {
	if err := a.state.RequireConnected("restore backup"); err != nil {
		return err
	}

	var status backupStatus
	url := a.baseURL + "/v1/backups/filesystem/" + backupID + "/restore"
	if err := a.doJSON(ctx, http.MethodPost, url, map[string]interface{}{}, &status); err != nil {
		return adapter.WrapError(dbcapabilities.Weaviate, "restore backup", err)
	}
	if status.Error != "" {
		return adapter.WrapError(dbcapabilities.Weaviate, "restore backup", fmt.Errorf("%s", status.Error))
	}
	return nil
}

// QueryMetrics wall-clock times one operation.
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

// doJSON issues one JSON request and decodes the response into out (when out
// is non-nil). Non-2xx responses become errors carrying the status and body.
func (a *Adapter) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("weaviate api: %s %s: status %d: %s", method, url, resp.StatusCode, string(payload))
	}
	if out != nil && len(payload) > 0 {
		return json.Unmarshal(payload, out)
	}
	return nil
}

// baseURL assembles the server URL from the config. An explicit
// ConnectionString wins.
func baseURL(cfg adapter.ConnectionConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}
	scheme := "http"
	if cfg.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
}

var _ adapter.DatabaseAdapter = (*Adapter)(nil)
