package dbcapabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DatabaseID
		ok   bool
	}{
		{"canonical", "postgres", PostgreSQL, true},
		{"alias postgresql", "postgresql", PostgreSQL, true},
		{"alias pgsql", "pgsql", PostgreSQL, true},
		{"case insensitive", "PostgreSQL", PostgreSQL, true},
		{"mongo alias", "mongo", MongoDB, true},
		{"unknown", "oracle", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseID(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetCoversAllIDs(t *testing.T) {
	for _, id := range IDs() {
		capability, ok := Get(id)
		require.True(t, ok, "missing capability for %s", id)
		assert.Equal(t, id, capability.ID)
		assert.NotEmpty(t, capability.Name)
	}
}

func TestTransactionAndBackupSupport(t *testing.T) {
	assert.True(t, SupportsTransactions(PostgreSQL))
	assert.True(t, SupportsTransactions(Redis))
	assert.False(t, SupportsTransactions(Pinecone))
	assert.False(t, SupportsTransactions(Weaviate))

	assert.True(t, SupportsBackup(SQLite))
	assert.True(t, SupportsBackup(Redis))
	assert.False(t, SupportsBackup(PostgreSQL))
	assert.False(t, SupportsBackup(MySQL))
	assert.False(t, SupportsBackup(MongoDB))
}

func TestMustGetPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustGet(DatabaseID("nope")) })
}
