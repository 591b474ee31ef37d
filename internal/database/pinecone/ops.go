package pinecone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// operation is the tagged envelope for ad-hoc Pinecone queries.
type operation struct {
	Type            string                 `json:"type"`
	Namespace       string                 `json:"namespace,omitempty"`
	Vector          []float32              `json:"vector,omitempty"`
	TopK            int                    `json:"topK,omitempty"`
	Filter          map[string]interface{} `json:"filter,omitempty"`
	IncludeValues   bool                   `json:"includeValues,omitempty"`
	IncludeMetadata bool                   `json:"includeMetadata,omitempty"`
	Vectors         []vector               `json:"vectors,omitempty"`
	IDs             []string               `json:"ids,omitempty"`
	DeleteAll       bool                   `json:"deleteAll,omitempty"`
}

// vector is one upsert payload entry.
type vector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// match is one query result entry.
type match struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Values   []float32              `json:"values,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ExecuteQuery runs one tagged operation, e.g.
// {"type":"query","vector":[...],"topK":10}. Malformed envelopes, unknown
// types, and API failures all come back inside the result.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error) {
	if err := a.state.RequireConnected("execute query"); err != nil {
		return nil, err
	}

	var op operation
	if err := json.Unmarshal([]byte(query), &op); err != nil {
		return adapter.ErrorResult(fmt.Errorf("invalid operation document: %w", err)), nil
	}

	switch op.Type {
	case "query":
		topK := op.TopK
		if topK <= 0 {
			topK = 10
		}
		body := map[string]interface{}{
			"vector":          op.Vector,
			"topK":            topK,
			"includeValues":   op.IncludeValues,
			"includeMetadata": op.IncludeMetadata,
		}
		if op.Namespace != "" {
			body["namespace"] = op.Namespace
		}
		if len(op.Filter) > 0 {
			body["filter"] = op.Filter
		}
		var resp struct {
			Matches []match `json:"matches"`
		}
		if err := a.doJSON(ctx, http.MethodPost, a.indexHost+"/query", body, &resp); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return matchResult(resp.Matches, "query"), nil

	case "upsert":
		body := map[string]interface{}{"vectors": op.Vectors}
		if op.Namespace != "" {
			body["namespace"] = op.Namespace
		}
		var resp struct {
			UpsertedCount int64 `json:"upsertedCount"`
		}
		if err := a.doJSON(ctx, http.MethodPost, a.indexHost+"/vectors/upsert", body, &resp); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: resp.UpsertedCount, Command: "upsert"}, nil

	case "fetch":
		values := url.Values{}
		for _, id := range op.IDs {
			values.Add("ids", id)
		}
		if op.Namespace != "" {
			values.Set("namespace", op.Namespace)
		}
		endpoint := a.indexHost + "/vectors/fetch"
		if encoded := values.Encode(); encoded != "" {
			endpoint += "?" + encoded
		}
		var resp struct {
			Vectors map[string]vector `json:"vectors"`
		}
		if err := a.doJSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return adapter.ErrorResult(err), nil
		}
		rows := make([]map[string]interface{}, 0, len(resp.Vectors))
		for _, v := range resp.Vectors {
			rows = append(rows, map[string]interface{}{
				"id":       v.ID,
				"values":   v.Values,
				"metadata": v.Metadata,
			})
		}
		return &adapter.QueryResult{
			Rows:     rows,
			Fields:   vectorFields(),
			RowCount: int64(len(rows)),
			Command:  "fetch",
		}, nil

	case "delete", "deleteAll":
		body := map[string]interface{}{}
		if op.Type == "deleteAll" || op.DeleteAll {
			body["deleteAll"] = true
		} else {
			body["ids"] = op.IDs
		}
		if op.Namespace != "" {
			body["namespace"] = op.Namespace
		}
		if err := a.doJSON(ctx, http.MethodPost, a.indexHost+"/vectors/delete", body, nil); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{Command: op.Type}, nil

	default:
		return adapter.ErrorResult(fmt.Errorf("unknown operation type %q", op.Type)), nil
	}
}

func matchResult(matches []match, command string) *adapter.QueryResult {
	rows := make([]map[string]interface{}, len(matches))
	for i, m := range matches {
		row := map[string]interface{}{
			"id":    m.ID,
			"score": m.Score,
		}
		if m.Values != nil {
			row["values"] = m.Values
		}
		if m.Metadata != nil {
			row["metadata"] = m.Metadata
		}
		rows[i] = row
	}
	return &adapter.QueryResult{
		Rows: rows,
		Fields: []adapter.FieldInfo{
			{Name: "id"}, {Name: "score"}, {Name: "values"}, {Name: "metadata"},
		},
		RowCount: int64(len(rows)),
		Command:  command,
	}
}

func vectorFields() []adapter.FieldInfo {
	return []adapter.FieldInfo{{Name: "id"}, {Name: "values"}, {Name: "metadata"}}
}
