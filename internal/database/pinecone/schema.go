package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// ListTables returns the names of all indexes visible to the API key, sorted.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := a.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}

	var resp struct {
		Indexes []indexDescription `json:"indexes"`
	}
	if err := a.doJSON(ctx, http.MethodGet, a.controlURL+"/indexes", nil, &resp); err != nil {
		return nil, adapter.WrapError(dbcapabilities.Pinecone, "list tables", err)
	}

	names := make([]string, 0, len(resp.Indexes))
	for _, idx := range resp.Indexes {
		names = append(names, idx.Name)
	}
	sort.Strings(names)
	return names, nil
}

// GetTableSchema synthesizes a schema for one index from its description:
// Pinecone records are always an id, a fixed-dimension vector, and optional
// metadata.
func (a *Adapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := a.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}

	var desc indexDescription
	if err := a.doJSON(ctx, http.MethodGet, a.controlURL+"/indexes/"+tableName, nil, &desc); err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.Pinecone, tableName, err)
	}

	return &adapter.TableInfo{
		Name: desc.Name,
		Columns: []adapter.ColumnInfo{
			{Name: "id", DataType: "string", IsPrimaryKey: true},
			{Name: "values", DataType: fmt.Sprintf("vector(%d)", desc.Dimension)},
			{Name: "metadata", DataType: "object", IsNullable: true},
		},
		PrimaryKey: []string{"id"},
	}, nil
}
