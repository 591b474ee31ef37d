// Package pinecone implements the DatabaseAdapter contract against the
// Pinecone REST API. The control plane (api.pinecone.io) serves index and
// collection management; vector operations go to the per-index data-plane
// host. There is no official Go SDK surface in use here; requests are plain
// net/http.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

const controlPlane = "https://api.pinecone.io"

// Adapter is the Pinecone implementation of adapter.DatabaseAdapter. One
// adapter serves one index, named by cfg.DatabaseName; cfg.APIKey carries the
// credential.
type Adapter struct {
	cfg        adapter.ConnectionConfig
	state      *adapter.StateTracker
	httpClient *http.Client

	controlURL string
	indexName  string
	indexHost  string
	dimension  int
}

// NewAdapter creates a disconnected Pinecone adapter.
func NewAdapter(cfg adapter.ConnectionConfig) *Adapter {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	control := controlPlane
	if cfg.ConnectionString != "" {
		control = cfg.ConnectionString
	}
	return &Adapter{
		cfg:        cfg,
		state:      adapter.NewStateTracker(dbcapabilities.Pinecone),
		httpClient: &http.Client{Timeout: timeout},
		controlURL: control,
		indexName:  cfg.DatabaseName,
	}
}

// Type returns the canonical engine identifier.
func (a *Adapter) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.Pinecone
}

// Capabilities returns the engine capability metadata.
func (a *Adapter) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.Pinecone)
}

// Status returns the current connection state.
func (a *Adapter) Status() adapter.ConnectionState {
	return a.state.Status()
}

// indexDescription is the control-plane shape of one index.
type indexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

// Connect resolves the index's data-plane host through the control plane.
// That request doubles as the credential check.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.SetState(adapter.StateConnecting)

	if a.cfg.APIKey == "" || a.indexName == "" {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.Pinecone, a.controlURL, 0,
			adapter.ErrInvalidConfiguration)
	}

	var desc indexDescription
	if err := a.doJSON(ctx, http.MethodGet, a.controlURL+"/indexes/"+a.indexName, nil, &desc); err != nil {
		a.state.SetState(adapter.StateError)
		return adapter.NewConnectionError(dbcapabilities.Pinecone, a.controlURL, 0, err)
	}

	a.indexHost = desc.Host
	if !strings.Contains(a.indexHost, "://") {
		a.indexHost = "https://" + a.indexHost
	}
	a.dimension = desc.Dimension
	a.state.SetState(adapter.StateConnected)
	return nil
}

// Disconnect drops the resolved host. HTTP needs no teardown.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.indexHost = ""
	a.state.SetState(adapter.StateDisconnected)
	return nil
}

// HealthCheck probes the data plane's index stats endpoint.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.state.Status() != adapter.StateConnected {
		return false
	}
	var stats struct{}
	err := a.doJSON(ctx, http.MethodPost, a.indexHost+"/describe_index_stats",
		map[string]interface{}{}, &stats)
	return err == nil
}

// BeginTransaction is not supported: the Pinecone API has no transaction
// concept.
func (a *Adapter) BeginTransaction(ctx context.Context) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Pinecone, "transactions", "")
}

// CommitTransaction is not supported.
func (a *Adapter) CommitTransaction(ctx context.Context) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Pinecone, "transactions", "")
}

// RollbackTransaction is not supported.
func (a *Adapter) RollbackTransaction(ctx context.Context) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Pinecone, "transactions", "")
}

// CreateBackup snapshots the index into a Pinecone collection and returns the
// collection name.
func (a *Adapter) CreateBackup(ctx context.Context, cfg adapter.BackupConfig) (string, error) {
	if err := a.state.RequireConnected("create backup"); err != nil {
		return "", err
	}

	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", a.indexName, time.Now().UTC().Format("20060102t150405z"))
	}
	body := map[string]interface{}{"name": name, "source": a.indexName}
	var created struct {
		Name string `json:"name"`
	}
	if err := a.doJSON(ctx, http.MethodPost, a.controlURL+"/collections", body, &created); err != nil {
		return "", adapter.WrapError(dbcapabilities.Pinecone, "create backup", err)
	}
	if created.Name == "" {
		created.Name = name
	}
	return created.Name, nil
}

// RestoreBackup is not supported in place: a collection can only seed a new
// index at creation time.
func (a *Adapter) RestoreBackup(ctx context.Context, backupID string) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.Pinecone, "restore",
		"collections can only seed a new index, not overwrite an existing one")
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
	req.Header.Set("Api-Key", a.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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
		return fmt.Errorf("pinecone api: %s %s: status %d: %s", method, url, resp.StatusCode, string(payload))
	}
	if out != nil && len(payload) > 0 {
		return json.Unmarshal(payload, out)
	}
	return nil
}

var _ adapter.DatabaseAdapter = (*Adapter)(nil)
