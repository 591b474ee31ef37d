package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

func columnByName(t *testing.T, columns []adapter.ColumnInfo, name string) adapter.ColumnInfo {
	t.Helper()
	for _, col := range columns {
		if col.Name == name {
			return col
		}
	}
	t.Fatalf("column %q not inferred", name)
	return adapter.ColumnInfo{}
}

func TestInferColumnsSingleType(t *testing.T) {
	docs := []bson.M{
		{"name": "ada", "age": int32(36)},
		{"name": "alan", "age": int64(41)},
	}

	columns := inferColumns(docs)
	require.Len(t, columns, 2)

	age := columnByName(t, columns, "age")
	assert.Equal(t, "number", age.DataType)
	assert.True(t, age.IsNullable)

	name := columnByName(t, columns, "name")
	assert.Equal(t, "string", name.DataType)
}

func TestInferColumnsMixedTypesSortedAlphabetically(t *testing.T) {
	docs := []bson.M{
		{"value": "high"},
		{"value": int32(3)},
	}

	columns := inferColumns(docs)
	value := columnByName(t, columns, "value")
	assert.Equal(t, "Mixed(number, string)", value.DataType)
}

func TestInferColumnsNestedDocumentsUseDottedPaths(t *testing.T) {
	docs := []bson.M{
		{"address": bson.M{"city": "berlin", "geo": bson.M{"lat": 52.5}}},
	}

	columns := inferColumns(docs)
	assert.Equal(t, "string", columnByName(t, columns, "address.city").DataType)
	assert.Equal(t, "number", columnByName(t, columns, "address.geo.lat").DataType)
}

func TestInferColumnsArraysAreOpaque(t *testing.T) {
	docs := []bson.M{
		{"tags": bson.A{"a", "b"}},
		{"tags": []interface{}{bson.M{"nested": true}}},
	}

	columns := inferColumns(docs)
	assert.Equal(t, "array", columnByName(t, columns, "tags").DataType)
}

func TestInferColumnsIDIsPrimaryKey(t *testing.T) {
	docs := []bson.M{{"_id": bson.NewObjectID(), "x": true}}

	columns := inferColumns(docs)
	id := columnByName(t, columns, "_id")
	assert.Equal(t, "objectId", id.DataType)
	assert.True(t, id.IsPrimaryKey)
	assert.False(t, columnByName(t, columns, "x").IsPrimaryKey)
}

func TestInferColumnsSortedByPath(t *testing.T) {
	docs := []bson.M{{"zeta": 1.0, "alpha": "x", "meta": bson.M{"b": 1.0, "a": 1.0}}}

	columns := inferColumns(docs)
	var names []string
	for _, col := range columns {
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"alpha", "meta.a", "meta.b", "zeta"}, names)
}

func TestInferColumnsEmptySample(t *testing.T) {
	assert.Empty(t, inferColumns(nil))
}

func TestTypeNameNullAndDate(t *testing.T) {
	docs := []bson.M{
		{"deleted_at": nil},
		{"deleted_at": bson.DateTime(0)},
	}
	columns := inferColumns(docs)
	assert.Equal(t, "Mixed(date, null)", columnByName(t, columns, "deleted_at").DataType)
}

func TestIndexInfoMapsNativeIndexes(t *testing.T) {
	unique := indexInfo(indexSpec{
		Name:   "email_1",
		Key:    bson.D{{Key: "email", Value: 1}},
		Unique: true,
	})
	assert.Equal(t, "email_1", unique.Name)
	assert.Equal(t, []string{"email"}, unique.Columns)
	assert.True(t, unique.IsUnique)

	compound := indexInfo(indexSpec{
		Name: "tenant_1_created_-1",
		Key:  bson.D{{Key: "tenant", Value: 1}, {Key: "created", Value: -1}},
	})
	assert.Equal(t, []string{"tenant", "created"}, compound.Columns)
	assert.False(t, compound.IsUnique)
}

func TestIndexInfoIDIndexIsUnique(t *testing.T) {
	id := indexInfo(indexSpec{Name: "_id_", Key: bson.D{{Key: "_id", Value: 1}}})
	require.Equal(t, []string{"_id"}, id.Columns)
	assert.True(t, id.IsUnique)
}
