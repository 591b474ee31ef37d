package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

func TestTypedErrorsBridgeToSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{
			"unsupported operation",
			NewUnsupportedOperationError(dbcapabilities.Pinecone, "transactions", ""),
			ErrOperationNotSupported,
		},
		{
			"not connected",
			NewNotConnectedError(dbcapabilities.PostgreSQL, "execute query"),
			ErrNotConnected,
		},
		{
			"connection failed",
			NewConnectionError(dbcapabilities.MySQL, "db.internal", 3306, fmt.Errorf("dial tcp: refused")),
			ErrConnectionFailed,
		},
		{
			"not found",
			NewNotFoundError("connection", "conn-1"),
			ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestConnectionErrorUnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused")
	err := NewConnectionError(dbcapabilities.PostgreSQL, "10.0.0.5", 5432, cause)

	assert.ErrorContains(t, err, "10.0.0.5:5432")
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestSchemaErrorCarriesTableAndCause(t *testing.T) {
	err := NewSchemaError(dbcapabilities.SQLite, "users", ErrNotFound)

	assert.ErrorContains(t, err, `"users"`)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWrapError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, WrapError(dbcapabilities.Redis, "op", nil))
	})

	t.Run("adds context", func(t *testing.T) {
		err := WrapError(dbcapabilities.Redis, "commit transaction", ErrNoTransaction)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoTransaction))

		var dbErr *DatabaseError
		require.True(t, errors.As(err, &dbErr))
		assert.Equal(t, dbcapabilities.Redis, dbErr.DatabaseType)
		assert.Equal(t, "commit transaction", dbErr.Operation)
	})

	t.Run("does not double-wrap", func(t *testing.T) {
		inner := NewDatabaseError(dbcapabilities.MySQL, "begin transaction", ErrTransactionInProgress)
		wrapped := WrapError(dbcapabilities.MySQL, "begin transaction", inner)
		assert.Same(t, error(inner), wrapped)
	})
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsUnsupported(NewUnsupportedOperationError(dbcapabilities.Weaviate, "transactions", "")))
	assert.True(t, IsNotConnected(NewNotConnectedError(dbcapabilities.Redis, "list tables")))
	assert.True(t, IsConnectionError(NewConnectionError(dbcapabilities.MongoDB, "host", 27017, fmt.Errorf("x"))))
	assert.True(t, IsNotFound(NewNotFoundError("engine type", "oracle")))

	assert.False(t, IsUnsupported(fmt.Errorf("plain")))
	assert.False(t, IsNotFound(ErrNotConnected))
}
