package weaviate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/.well-known/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"classes": []map[string]interface{}{
				{"class": "Document"},
				{"class": "Author"},
			},
		})
	})
	mux.HandleFunc("GET /v1/schema/Document", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"class": "Document",
			"properties": []map[string]interface{}{
				{"name": "title", "dataType": []string{"text"}},
				{"name": "pages", "dataType": []string{"int"}},
			},
		})
	})
	mux.HandleFunc("POST /v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"Document": []map[string]interface{}{
						{"title": "go in practice"},
						{"title": "the art of unix programming"},
					},
				},
			},
		})
	})
	mux.HandleFunc("POST /v1/objects", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "0f0e9f6a"})
	})
	mux.HandleFunc("DELETE /v1/objects/Document/0f0e9f6a", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /v1/backups/filesystem", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": body["id"], "status": "STARTED"})
	})
	mux.HandleFunc("POST /v1/backups/filesystem/snap-1/restore", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "snap-1", "status": "STARTED"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newConnectedAdapter(t *testing.T) *Adapter {
	t.Helper()
	server := newTestServer(t)
	a := NewAdapter(adapter.ConnectionConfig{ConnectionString: server.URL})
	require.NoError(t, a.Connect(context.Background()))
	return a
}

func TestConnectAndHealthCheck(t *testing.T) {
	a := newConnectedAdapter(t)
	assert.Equal(t, adapter.StateConnected, a.Status())
	assert.True(t, a.HealthCheck(context.Background()))
}

func TestConnectFailureSetsErrorState(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{ConnectionString: "http://127.0.0.1:1"})
	err := a.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.Equal(t, adapter.StateError, a.Status())
}

func TestExecuteQueryGraphQL(t *testing.T) {
	a := newConnectedAdapter(t)

	result, err := a.ExecuteQuery(context.Background(),
		`{"type":"query","class":"Document","fields":["title"],"limit":2}`)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Equal(t, int64(2), result.RowCount)
	assert.Equal(t, "go in practice", result.Rows[0]["title"])
}

func TestExecuteQueryNearVectorRequiresVector(t *testing.T) {
	a := newConnectedAdapter(t)

	result, err := a.ExecuteQuery(context.Background(),
		`{"type":"nearVector","class":"Document"}`)
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "vector")
}

func TestExecuteQueryCreateAndDelete(t *testing.T) {
	a := newConnectedAdapter(t)
	ctx := context.Background()

	created, err := a.ExecuteQuery(ctx,
		`{"type":"create","class":"Document","properties":{"title":"x"}}`)
	require.NoError(t, err)
	assert.False(t, created.Failed())
	assert.Equal(t, "0f0e9f6a", created.Rows[0]["id"])

	deleted, err := a.ExecuteQuery(ctx,
		`{"type":"delete","class":"Document","id":"0f0e9f6a"}`)
	require.NoError(t, err)
	assert.False(t, deleted.Failed())
}

func TestExecuteQueryUnknownType(t *testing.T) {
	a := newConnectedAdapter(t)

	result, err := a.ExecuteQuery(context.Background(), `{"type":"upsert","class":"Document"}`)
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "unknown operation type")
}

func TestListTablesAndSchema(t *testing.T) {
	a := newConnectedAdapter(t)

	tables, err := a.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Author", "Document"}, tables)

	info, err := a.GetTableSchema(context.Background(), "Document")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, info.PrimaryKey)
	require.Len(t, info.Columns, 4)
	assert.Equal(t, "title", info.Columns[2].Name)
	assert.Equal(t, "text", info.Columns[2].DataType)
}

func TestBackupAndRestore(t *testing.T) {
	a := newConnectedAdapter(t)
	ctx := context.Background()

	id, err := a.CreateBackup(ctx, adapter.BackupConfig{Name: "snap-1"})
	require.NoError(t, err)
	assert.Equal(t, "snap-1", id)

	assert.NoError(t, a.RestoreBackup(ctx, "snap-1"))
}

func TestTransactionsUnsupported(t *testing.T) {
	a := newConnectedAdapter(t)
	ctx := context.Background()

	assert.True(t, adapter.IsUnsupported(a.BeginTransaction(ctx)))
	assert.True(t, adapter.IsUnsupported(a.CommitTransaction(ctx)))
	assert.True(t, adapter.IsUnsupported(a.RollbackTransaction(ctx)))
}
