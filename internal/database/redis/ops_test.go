package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

func TestExecuteQueryRequiresConnection(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{Host: "localhost", Port: 6379})

	_, err := a.ExecuteQuery(context.Background(), `{"command":"GET","args":["k"]}`)
	require.Error(t, err)
	assert.True(t, adapter.IsNotConnected(err))
}

func TestAllowedCommandsExcludesAdministrative(t *testing.T) {
	assert.True(t, allowedCommands["GET"])
	assert.True(t, allowedCommands["HGETALL"])
	assert.True(t, allowedCommands["ZRANGE"])

	assert.False(t, allowedCommands["FLUSHALL"])
	assert.False(t, allowedCommands["CONFIG"])
	assert.False(t, allowedCommands["EVAL"])
	assert.False(t, allowedCommands["SHUTDOWN"])
}

func TestReplyResultScalar(t *testing.T) {
	result := replyResult("GET", "hello")
	assert.Equal(t, int64(1), result.RowCount)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "hello", result.Rows[0]["value"])
	assert.Equal(t, "GET", result.Command)
}

func TestReplyResultArray(t *testing.T) {
	result := replyResult("LRANGE", []interface{}{"a", "b", "c"})
	assert.Equal(t, int64(3), result.RowCount)
	assert.Equal(t, "b", result.Rows[1]["value"])
}

func TestReplyResultMap(t *testing.T) {
	result := replyResult("HGETALL", map[interface{}]interface{}{"name": "ada"})
	require.Equal(t, int64(1), result.RowCount)
	assert.Equal(t, "name", result.Rows[0]["field"])
	assert.Equal(t, "ada", result.Rows[0]["value"])
}

func TestLogicalDB(t *testing.T) {
	db, err := logicalDB("3")
	require.NoError(t, err)
	assert.Equal(t, 3, db)

	db, err = logicalDB("")
	require.NoError(t, err)
	assert.Equal(t, 0, db)

	_, err = logicalDB("cache")
	assert.Error(t, err)
}
