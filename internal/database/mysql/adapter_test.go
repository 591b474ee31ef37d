package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

func TestDSNFromDiscreteFields(t *testing.T) {
	got := dsn(adapter.ConnectionConfig{
		Host:           "db.internal",
		Port:           3306,
		Username:       "svc",
		Password:       "secret",
		DatabaseName:   "app",
		ConnectTimeout: 5 * time.Second,
	})

	assert.Contains(t, got, "svc:secret@tcp(db.internal:3306)/app")
	assert.Contains(t, got, "parseTime=true")
	assert.Contains(t, got, "timeout=5s")
}

func TestDSNPrefersConnectionString(t *testing.T) {
	got := dsn(adapter.ConnectionConfig{
		ConnectionString: "user:pw@tcp(explicit:3306)/db",
		Host:             "ignored",
	})
	assert.Equal(t, "user:pw@tcp(explicit:3306)/db", got)
}

func TestOperationsRequireConnection(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{Host: "localhost", Port: 3306})
	ctx := context.Background()

	_, err := a.ExecuteQuery(ctx, "SELECT 1")
	assert.True(t, adapter.IsNotConnected(err))

	_, err = a.ListTables(ctx)
	assert.True(t, adapter.IsNotConnected(err))

	assert.True(t, adapter.IsNotConnected(a.BeginTransaction(ctx)))
	assert.False(t, a.HealthCheck(ctx))
}

func TestBackupUnsupportedNamesToolchain(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{})

	_, err := a.CreateBackup(context.Background(), adapter.BackupConfig{})
	require.Error(t, err)
	assert.True(t, adapter.IsUnsupported(err))
	assert.ErrorContains(t, err, "mysqldump")
}

func TestTypeAndCapabilities(t *testing.T) {
	a := NewAdapter(adapter.ConnectionConfig{})
	assert.Equal(t, dbcapabilities.MySQL, a.Type())
	assert.True(t, a.Capabilities().SupportsSQL)
	assert.Equal(t, adapter.StateDisconnected, a.Status())
}
