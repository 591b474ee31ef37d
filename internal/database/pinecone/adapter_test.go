package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// newTestServer fakes both the control plane and the data plane on one host.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("GET /indexes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"indexes": []map[string]interface{}{
				{"name": "embeddings", "host": server.URL, "dimension": 3},
				{"name": "archive", "host": server.URL, "dimension": 3},
			},
		})
	})
	mux.HandleFunc("GET /indexes/embeddings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "embeddings", "host": server.URL, "dimension": 3,
		})
	})
	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"matches": []map[string]interface{}{
				{"id": "v1", "score": 0.98},
				{"id": "v2", "score": 0.71},
			},
		})
	})
	mux.HandleFunc("POST /vectors/upsert", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"upsertedCount": 2})
	})
	mux.HandleFunc("GET /vectors/fetch", func(w http.ResponseWriter, r *http.Request) {
		vectors := map[string]interface{}{}
		for _, id := range r.URL.Query()["ids"] {
			vectors[id] = map[string]interface{}{"id": id, "values": []float64{0.1, 0.2, 0.3}}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"vectors": vectors})
	})
	mux.HandleFunc("POST /vectors/delete", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["deleteAll"] != true && body["ids"] == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /collections", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]interface{}{"name": body["name"]})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newConnectedAdapter(t *testing.T) *Adapter {
	t.Helper()
	server := newTestServer(t)
	a := NewAdapter(adapter.ConnectionConfig{
		ConnectionString: server.URL,
		DatabaseName:     "embeddings",
		APIKey:           "test-key",
	})
	require.NoError(t, a.Connect(context.Background()))
	return a
}

func TestConnectResolvesIndexHost(t *testing.T) {
	a := newConnectedAdapter(t)
	assert.Equal(t, adapter.StateConnected, a.Status())
	assert.Equal(t, 3, a.dimension)
}

func TestConnectRequiresAPIKey(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{DatabaseName: "embeddings"})
	err := a.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.Equal(t, adapter.StateError, a.Status())
}

func TestExecuteQueryVectorSearch(t *testing.T) {
	a := newConnectedAdapter(t)

	result, err := a.ExecuteQuery(context.Background(),
		`{"type":"query","vector":[0.1,0.2,0.3],"topK":2}`)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Equal(t, int64(2), result.RowCount)
	assert.Equal(t, "v1", result.Rows[0]["id"])
}

func TestExecuteQueryUpsert(t *testing.T) {
	a := newConnectedAdapter(t)

	result, err := a.ExecuteQuery(context.Background(),
		`{"type":"upsert","vectors":[{"id":"v1","values":[0.1,0.2,0.3]},{"id":"v2","values":[0.4,0.5,0.6]}]}`)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Equal(t, int64(2), result.RowCount)
}

func TestExecuteQueryDelete(t *testing.T) {
	a := newConnectedAdapter(t)
	ctx := context.Background()

	result, err := a.ExecuteQuery(ctx, `{"type":"delete","ids":["v1"]}`)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Equal(t, "delete", result.Command)

	result, err = a.ExecuteQuery(ctx, `{"type":"deleteAll"}`)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Equal(t, "deleteAll", result.Command)
}

func TestExecuteQueryFetchEscapesIDs(t *testing.T) {
	a := newConnectedAdapter(t)

	result, err := a.ExecuteQuery(context.Background(),
		`{"type":"fetch","ids":["v#1","v 2"],"namespace":"team a"}`)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Equal(t, int64(2), result.RowCount)
}

func TestExecuteQueryUnknownType(t *testing.T) {
	a := newConnectedAdapter(t)

	result, err := a.ExecuteQuery(context.Background(), `{"type":"merge"}`)
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "unknown operation type")
	assert.Contains(t, result.Error, "merge")
}

func TestListTablesAndSchema(t *testing.T) {
	a := newConnectedAdapter(t)

	tables, err := a.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "embeddings"}, tables)

	info, err := a.GetTableSchema(context.Background(), "embeddings")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, info.PrimaryKey)
	require.Len(t, info.Columns, 3)
	assert.Equal(t, "vector(3)", info.Columns[1].DataType)
}

func TestCreateBackupReturnsCollectionName(t *testing.T) {
	a := newConnectedAdapter(t)

	id, err := a.CreateBackup(context.Background(), adapter.BackupConfig{Name: "snap-1"})
	require.NoError(t, err)
	assert.Equal(t, "snap-1", id)
}

func TestTransactionsUnsupported(t *testing.T) {
	a := newConnectedAdapter(t)
	ctx := context.Background()

	assert.True(t, adapter.IsUnsupported(a.BeginTransaction(ctx)))
	assert.True(t, adapter.IsUnsupported(a.CommitTransaction(ctx)))
	assert.True(t, adapter.IsUnsupported(a.RollbackTransaction(ctx)))
	assert.True(t, adapter.IsUnsupported(a.RestoreBackup(ctx, "snap-1")))
}

func TestCapabilities(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{})
	capability := a.Capabilities()
	assert.Equal(t, dbcapabilities.Pinecone, capability.ID)
	assert.False(t, capability.SupportsTransactions)
	assert.True(t, capability.SupportsBackup)
}
