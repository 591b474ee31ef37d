package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// operation is the tagged envelope for ad-hoc Weaviate queries.
type operation struct {
	Type       string                 `json:"type"`
	Class      string                 `json:"class"`
	ID         string                 `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Fields     []string               `json:"fields,omitempty"`
	Where      string                 `json:"where,omitempty"`
	Vector     []float32              `json:"vector,omitempty"`
	Limit      int                    `json:"limit,omitempty"`
}

// ExecuteQuery runs one tagged operation, e.g.
// {"type":"query","class":"Article","fields":["title"],"limit":10}. Reads go
// through GraphQL, writes through the objects REST endpoint. Malformed
// envelopes, unknown types, and API failures all come back inside the result.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error) {
	if err := a.state.RequireConnected("execute query"); err != nil {
		return nil, err
	}

	var op operation
	if err := json.Unmarshal([]byte(query), &op); err != nil {
		return adapter.ErrorResult(fmt.Errorf("invalid operation document: %w", err)), nil
	}
	if op.Class == "" {
		return adapter.ErrorResult(fmt.Errorf("operation %q requires a class", op.Type)), nil
	}

	switch op.Type {
	case "query":
		return a.graphQLGet(ctx, op, ""), nil

	case "nearVector":
		if len(op.Vector) == 0 {
			return adapter.ErrorResult(fmt.Errorf("nearVector requires a vector")), nil
		}
		encoded, err := json.Marshal(op.Vector)
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return a.graphQLGet(ctx, op, fmt.Sprintf("nearVector: {vector: %s}", encoded)), nil

	case "create":
		body := map[string]interface{}{
			"class":      op.Class,
			"properties": op.Properties,
		}
		if op.ID != "" {
			body["id"] = op.ID
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := a.doJSON(ctx, http.MethodPost, a.baseURL+"/v1/objects", body, &created); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{
			Rows:     []map[string]interface{}{{"id": created.ID}},
			Fields:   []adapter.FieldInfo{{Name: "id"}},
			RowCount: 1,
			Command:  "create",
		}, nil

	case "update":
		if op.ID == "" {
			return adapter.ErrorResult(fmt.Errorf("update requires an id")), nil
		}
		body := map[string]interface{}{
			"class":      op.Class,
			"properties": op.Properties,
		}
		url := a.baseURL + "/v1/objects/" + op.Class + "/" + op.ID
		if err := a.doJSON(ctx, http.MethodPatch, url, body, nil); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: 1, Command: "update"}, nil

	case "delete":
		if op.ID == "" {
			return adapter.ErrorResult(fmt.Errorf("delete requires an id")), nil
		}
		url := a.baseURL + "/v1/objects/" + op.Class + "/" + op.ID
		if err := a.doJSON(ctx, http.MethodDelete, url, nil, nil); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: 1, Command: "delete"}, nil

	default:
		return adapter.ErrorResult(fmt.Errorf("unknown operation type %q", op.Type)), nil
	}
}

// graphQLGet builds and runs a Get query for the class, with an optional extra
// argument fragment (nearVector). op.Where carries a raw GraphQL where
// fragment.
func (a *Adapter) graphQLGet(ctx context.Context, op operation, extraArg string) *adapter.QueryResult {
	fields := op.Fields
	if len(fields) == 0 {
		fields = []string{"_additional { id }"}
	}

	var args []string
	if op.Limit > 0 {
		args = append(args, fmt.Sprintf("limit: %d", op.Limit))
	}
	if op.Where != "" {
		args = append(args, "where: "+op.Where)
	}
	if extraArg != "" {
		args = append(args, extraArg)
	}
	argList := ""
	if len(args) > 0 {
		argList = "(" + strings.Join(args, ", ") + ")"
	}

	gql := fmt.Sprintf("{ Get { %s%s { %s } } }", op.Class, argList, strings.Join(fields, " "))

	var resp struct {
		Data struct {
			Get map[string][]map[string]interface{} `json:"Get"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	body := map[string]interface{}{"query": gql}
	if err := a.doJSON(ctx, http.MethodPost, a.baseURL+"/v1/graphql", body, &resp); err != nil {
		return adapter.ErrorResult(err)
	}
	if len(resp.Errors) > 0 {
		return adapter.ErrorResult(fmt.Errorf("graphql: %s", resp.Errors[0].Message))
	}

	rows := resp.Data.Get[op.Class]
	seen := make(map[string]bool)
	var fieldInfos []adapter.FieldInfo
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				fieldInfos = append(fieldInfos, adapter.FieldInfo{Name: key})
			}
		}
	}
	return &adapter.QueryResult{
		Rows:     rows,
		Fields:   fieldInfos,
		RowCount: int64(len(rows)),
		Command:  op.Type,
	}
}
