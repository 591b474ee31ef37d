package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

func TestExecuteQueryRequiresConnection(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{})

	_, err := a.ExecuteQuery(context.Background(), `{"type":"find","collection":"users"}`)
	require.Error(t, err)
	assert.True(t, adapter.IsNotConnected(err))
}

func TestDocResultCollectsFieldsAcrossDocuments(t *testing.T) {
	docs := []bson.M{
		{"a": 1, "b": "x"},
		{"a": 2, "c": true},
	}

	result := docResult(docs, "find")
	assert.Equal(t, int64(2), result.RowCount)
	assert.Equal(t, "find", result.Command)
	assert.Len(t, result.Rows, 2)

	var names []string
	for _, f := range result.Fields {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
}

func TestFilterOrAll(t *testing.T) {
	assert.Equal(t, bson.M{}, filterOrAll(nil))
	assert.Equal(t, bson.M{"x": 1}, filterOrAll(bson.M{"x": 1}))
}
