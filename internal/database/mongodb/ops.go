package mongodb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// operation is the tagged envelope for ad-hoc MongoDB queries. Type selects
// the operation; the remaining fields are interpreted per type.
type operation struct {
	Type       string        `json:"type"`
	Collection string        `json:"collection"`
	Filter     bson.M        `json:"filter,omitempty"`
	Document   bson.M        `json:"document,omitempty"`
	Documents  []interface{} `json:"documents,omitempty"`
	Update     bson.M        `json:"update,omitempty"`
	Pipeline   []bson.M      `json:"pipeline,omitempty"`
	Sort       bson.M        `json:"sort,omitempty"`
	Projection bson.M        `json:"projection,omitempty"`
	Limit      int64         `json:"limit,omitempty"`
}

// ExecuteQuery runs one tagged operation. The query string is a JSON document
// such as {"type":"find","collection":"users","filter":{...}}. Malformed
// envelopes, unknown types, and driver failures all come back inside the
// result; positional parameters are not used by this engine.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...interface{}) (*adapter.QueryResult, error) {
	if err := a.state.RequireConnected("execute query"); err != nil {
		return nil, err
	}

	var op operation
	if err := json.Unmarshal([]byte(query), &op); err != nil {
		return adapter.ErrorResult(fmt.Errorf("invalid operation document: %w", err)), nil
	}
	if op.Collection == "" {
		return adapter.ErrorResult(fmt.Errorf("operation %q requires a collection", op.Type)), nil
	}

	ctx = a.opContext(ctx)
	coll := a.database().Collection(op.Collection)

	switch op.Type {
	case "find":
		opts := options.Find()
		if op.Limit > 0 {
			opts.SetLimit(op.Limit)
		}
		if len(op.Sort) > 0 {
			opts.SetSort(op.Sort)
		}
		if len(op.Projection) > 0 {
			opts.SetProjection(op.Projection)
		}
		cursor, err := coll.Find(ctx, filterOrAll(op.Filter), opts)
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		var docs []bson.M
		if err := cursor.All(ctx, &docs); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return docResult(docs, "find"), nil

	case "findOne":
		var doc bson.M
		err := coll.FindOne(ctx, filterOrAll(op.Filter)).Decode(&doc)
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return docResult([]bson.M{doc}, "findOne"), nil

	case "insertOne":
		if _, err := coll.InsertOne(ctx, op.Document); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: 1, Command: "insertOne"}, nil

	case "insertMany":
		res, err := coll.InsertMany(ctx, op.Documents)
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: int64(len(res.InsertedIDs)), Command: "insertMany"}, nil

	case "updateOne":
		res, err := coll.UpdateOne(ctx, filterOrAll(op.Filter), op.Update)
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: res.ModifiedCount, Command: "updateOne"}, nil

	case "updateMany":
		res, err := coll.UpdateMany(ctx, filterOrAll(op.Filter), op.Update)
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: res.ModifiedCount, Command: "updateMany"}, nil

	case "deleteOne":
		res, err := coll.DeleteOne(ctx, filterOrAll(op.Filter))
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: res.DeletedCount, Command: "deleteOne"}, nil

	case "deleteMany":
		res, err := coll.DeleteMany(ctx, filterOrAll(op.Filter))
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{RowCount: res.DeletedCount, Command: "deleteMany"}, nil

	case "aggregate":
		cursor, err := coll.Aggregate(ctx, op.Pipeline)
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		var docs []bson.M
		if err := cursor.All(ctx, &docs); err != nil {
			return adapter.ErrorResult(err), nil
		}
		return docResult(docs, "aggregate"), nil

	case "countDocuments":
		count, err := coll.CountDocuments(ctx, filterOrAll(op.Filter))
		if err != nil {
			return adapter.ErrorResult(err), nil
		}
		return &adapter.QueryResult{
			Rows:     []map[string]interface{}{{"count": count}},
			Fields:   []adapter.FieldInfo{{Name: "count"}},
			RowCount: 1,
			Command:  "countDocuments",
		}, nil

	default:
		return adapter.ErrorResult(fmt.Errorf("unknown operation type %q", op.Type)), nil
	}
}

func filterOrAll(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

func docResult(docs []bson.M, command string) *adapter.QueryResult {
	rows := make([]map[string]interface{}, len(docs))
	seen := make(map[string]bool)
	var fields []adapter.FieldInfo
	for i, doc := range docs {
		rows[i] = doc
		for key := range doc {
			if !seen[key] {
				seen[key] = true
				fields = append(fields, adapter.FieldInfo{Name: key})
			}
		}
	}
	return &adapter.QueryResult{
		Rows:     rows,
		Fields:   fields,
		RowCount: int64(len(docs)),
		Command:  command,
	}
}
