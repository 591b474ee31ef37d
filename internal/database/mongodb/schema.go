package mongodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// sampleSize bounds how many documents schema inference reads per collection.
const sampleSize = 100

// ListTables returns the collection names in the configured database, sorted.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := a.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}

	names, err := a.database().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, adapter.WrapError(dbcapabilities.MongoDB, "list tables", err)
	}
	sort.Strings(names)
	return names, nil
}

// GetTableSchema synthesizes a schema for one collection by sampling documents
// and recording the field paths and value types observed. MongoDB has no
// declared schema, so every inferred column is nullable.
func (a *Adapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := a.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}

	coll := a.database().Collection(tableName)
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetLimit(sampleSize))
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.MongoDB, tableName, err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.MongoDB, tableName, err)
	}

	indexes, err := collectionIndexes(ctx, coll)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.MongoDB, tableName, err)
	}

	return &adapter.TableInfo{
		Name:    tableName,
		Columns: inferColumns(docs),
		Indexes: indexes,
	}, nil
}

// indexSpec is the shape of one listIndexes document.
type indexSpec struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
}

// collectionIndexes lists the collection's native indexes and maps them to the
// uniform shape.
func collectionIndexes(ctx context.Context, coll *mongo.Collection) ([]adapter.IndexInfo, error) {
	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	var specs []indexSpec
	if err := cursor.All(ctx, &specs); err != nil {
		return nil, err
	}

	indexes := make([]adapter.IndexInfo, 0, len(specs))
	for _, spec := range specs {
		indexes = append(indexes, indexInfo(spec))
	}
	return indexes, nil
}

// indexInfo maps one index document, preserving the key order. The _id index
// carries no unique flag in listIndexes output but is always unique.
func indexInfo(spec indexSpec) adapter.IndexInfo {
	columns := make([]string, len(spec.Key))
	for i, elem := range spec.Key {
		columns[i] = elem.Key
	}
	return adapter.IndexInfo{
		Name:     spec.Name,
		Columns:  columns,
		IsUnique: spec.Unique || spec.Name == "_id_",
	}
}

// inferColumns flattens the sampled documents into dotted field paths and
// derives one column per path, sorted by path. Fields observed with more than
// one type get a Mixed(...) type listing the members alphabetically.
func inferColumns(docs []bson.M) []adapter.ColumnInfo {
	types := make(map[string]map[string]bool)
	for _, doc := range docs {
		collectFieldTypes("", doc, types)
	}

	paths := make([]string, 0, len(types))
	for path := range types {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	columns := make([]adapter.ColumnInfo, 0, len(paths))
	for _, path := range paths {
		columns = append(columns, adapter.ColumnInfo{
			Name:         path,
			DataType:     combinedType(types[path]),
			IsNullable:   true,
			IsPrimaryKey: path == "_id",
		})
	}
	return columns
}

// collectFieldTypes records the type of every field in doc under its dotted
// path. Embedded documents recurse; arrays are recorded opaquely.
func collectFieldTypes(prefix string, doc bson.M, types map[string]map[string]bool) {
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(bson.M); ok {
			collectFieldTypes(path, nested, types)
			continue
		}
		if types[path] == nil {
			types[path] = make(map[string]bool)
		}
		types[path][typeName(value)] = true
	}
}

// typeName maps a decoded BSON value to its inferred type label. All numeric
// widths collapse to "number" so int32 and float64 samples of the same field
// do not read as mixed.
func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	case bson.ObjectID:
		return "objectId"
	case bson.DateTime, time.Time:
		return "date"
	case bson.A, []interface{}:
		return "array"
	case bson.Binary:
		return "binary"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// combinedType renders a single observed type as itself and multiple observed
// types as Mixed(a, b) with members in alphabetical order.
func combinedType(observed map[string]bool) string {
	names := make([]string, 0, len(observed))
	for name := range observed {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 1 {
		return names[0]
	}
	return fmt.Sprintf("Mixed(%s)", strings.Join(names, ", "))
}
