package weaviate

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// classDescription is the /v1/schema shape of one class.
type classDescription struct {
	Class      string `json:"class"`
	Vectorizer string `json:"vectorizer,omitempty"`
	Properties []struct {
		Name     string   `json:"name"`
		DataType []string `json:"dataType"`
	} `json:"properties"`
}

// ListTables returns the class names in the schema, sorted.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := a.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}

	var resp struct {
		Classes []classDescription `json:"classes"`
	}
	if err := a.doJSON(ctx, http.MethodGet, a.baseURL+"/v1/schema", nil, &resp); err != nil {
		return nil, adapter.WrapError(dbcapabilities.Weaviate, "list tables", err)
	}

	names := make([]string, 0, len(resp.Classes))
	for _, class := range resp.Classes {
		names = append(names, class.Class)
	}
	sort.Strings(names)
	return names, nil
}

// GetTableSchema maps one class definition onto the normalized table shape:
// the object id and vector, then the declared properties in schema order.
func (a *Adapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := a.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}

	var class classDescription
	url := a.baseURL + "/v1/schema/" + tableName
	if err := a.doJSON(ctx, http.MethodGet, url, nil, &class); err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.Weaviate, tableName, err)
	}

	columns := []adapter.ColumnInfo{
		{Name: "id", DataType: "uuid", IsPrimaryKey: true},
		{Name: "vector", DataType: "vector", IsNullable: true},
	}
	for _, prop := range class.Properties {
		columns = append(columns, adapter.ColumnInfo{
			Name:       prop.Name,
			DataType:   strings.Join(prop.DataType, ","),
			IsNullable: true,
		})
	}

	return &adapter.TableInfo{
		Name:       class.Class,
		Columns:    columns,
		PrimaryKey: []string{"id"},
	}, nil
}
