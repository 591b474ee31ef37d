package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algodons/algo-dbcore/internal/database/sqlite"
	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/adapter/adaptertest"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

func usersTable() adapter.TableInfo {
	return adapter.TableInfo{
		Name: "users",
		Columns: []adapter.ColumnInfo{
			{Name: "id", DataType: "INTEGER", IsPrimaryKey: true, IsAutoIncrement: true},
			{Name: "email", DataType: "VARCHAR(255)", IsNullable: false},
			{Name: "note", DataType: "TEXT", IsNullable: true},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestCreateTablePerDialect(t *testing.T) {
	tests := []struct {
		engine dbcapabilities.DatabaseID
		want   string
	}{
		{
			dbcapabilities.PostgreSQL,
			`CREATE TABLE "users" ("id" SERIAL PRIMARY KEY, "email" VARCHAR(255) NOT NULL, "note" TEXT)`,
		},
		{
			dbcapabilities.MySQL,
			"CREATE TABLE `users` (`id` INTEGER PRIMARY KEY AUTO_INCREMENT, `email` VARCHAR(255) NOT NULL, `note` TEXT)",
		},
		{
			dbcapabilities.SQLite,
			`CREATE TABLE "users" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "email" VARCHAR(255) NOT NULL, "note" TEXT)`,
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.engine), func(t *testing.T) {
			d, ok := dialectFor(tt.engine)
			require.True(t, ok)
			assert.Equal(t, tt.want, d.createTable(usersTable()))
		})
	}
}

func TestCreateTableKeyFromColumnFlagsOnly(t *testing.T) {
	table := adapter.TableInfo{
		Name: "t",
		Columns: []adapter.ColumnInfo{
			{Name: "id", DataType: "INTEGER", IsPrimaryKey: true, IsAutoIncrement: true},
			{Name: "name", DataType: "TEXT"},
		},
	}

	lite, _ := dialectFor(dbcapabilities.SQLite)
	assert.Equal(t,
		`CREATE TABLE "t" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" TEXT NOT NULL)`,
		lite.createTable(table))

	pg, _ := dialectFor(dbcapabilities.PostgreSQL)
	assert.Equal(t,
		`CREATE TABLE "t" ("id" SERIAL PRIMARY KEY, "name" TEXT NOT NULL)`,
		pg.createTable(table))
}

func TestCreateTableCompositeKeyFromColumnFlags(t *testing.T) {
	d, _ := dialectFor(dbcapabilities.MySQL)
	table := adapter.TableInfo{
		Name: "memberships",
		Columns: []adapter.ColumnInfo{
			{Name: "user_id", DataType: "BIGINT", IsPrimaryKey: true},
			{Name: "org_id", DataType: "BIGINT", IsPrimaryKey: true},
		},
	}

	got := d.createTable(table)
	assert.Contains(t, got, "PRIMARY KEY (`user_id`, `org_id`)")
}

func TestCreateTableCompositePrimaryKey(t *testing.T) {
	d, _ := dialectFor(dbcapabilities.PostgreSQL)
	table := adapter.TableInfo{
		Name: "memberships",
		Columns: []adapter.ColumnInfo{
			{Name: "user_id", DataType: "BIGINT"},
			{Name: "org_id", DataType: "BIGINT"},
		},
		PrimaryKey: []string{"user_id", "org_id"},
	}

	got := d.createTable(table)
	assert.Contains(t, got, `PRIMARY KEY ("user_id", "org_id")`)
}

func TestModifyColumnTypePerDialect(t *testing.T) {
	pg, _ := dialectFor(dbcapabilities.PostgreSQL)
	got, err := pg.modifyColumnType("users", "note", "VARCHAR(500)")
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "users" ALTER COLUMN "note" TYPE VARCHAR(500)`, got)

	my, _ := dialectFor(dbcapabilities.MySQL)
	got, err = my.modifyColumnType("users", "note", "VARCHAR(500)")
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `users` MODIFY COLUMN `note` VARCHAR(500)", got)

	lite, _ := dialectFor(dbcapabilities.SQLite)
	_, err = lite.modifyColumnType("users", "note", "VARCHAR(500)")
	require.Error(t, err)
	assert.True(t, adapter.IsUnsupported(err))
}

func TestDropIndexPerDialect(t *testing.T) {
	my, _ := dialectFor(dbcapabilities.MySQL)
	assert.Equal(t, "DROP INDEX `idx_email` ON `users`", my.dropIndex("users", "idx_email"))

	pg, _ := dialectFor(dbcapabilities.PostgreSQL)
	assert.Equal(t, `DROP INDEX "idx_email"`, pg.dropIndex("users", "idx_email"))

	lite, _ := dialectFor(dbcapabilities.SQLite)
	assert.Equal(t, `DROP INDEX "idx_email"`, lite.dropIndex("users", "idx_email"))
}

func TestCreateIndex(t *testing.T) {
	d, _ := dialectFor(dbcapabilities.PostgreSQL)
	index := adapter.IndexInfo{Name: "idx_users_email", Columns: []string{"email", "tenant"}, IsUnique: true}
	assert.Equal(t,
		`CREATE UNIQUE INDEX "idx_users_email" ON "users" ("email", "tenant")`,
		d.createIndex("users", index))
}

func TestDialectForRejectsNonSQLEngines(t *testing.T) {
	for _, id := range []dbcapabilities.DatabaseID{
		dbcapabilities.MongoDB, dbcapabilities.Redis, dbcapabilities.Pinecone, dbcapabilities.Weaviate,
	} {
		_, ok := dialectFor(id)
		assert.False(t, ok, "engine %s should have no SQL dialect", id)
	}
}

func TestQuoteEscapesIdentifiers(t *testing.T) {
	my, _ := dialectFor(dbcapabilities.MySQL)
	assert.Equal(t, "`we`` ird`", my.quote("we` ird"))

	pg, _ := dialectFor(dbcapabilities.PostgreSQL)
	assert.Equal(t, `"we"" ird"`, pg.quote(`we" ird`))
}

func TestDDLThroughService(t *testing.T) {
	registry := adaptertest.NewFakeRegistry()
	fake := adaptertest.NewFake(dbcapabilities.PostgreSQL)
	registry.Add("conn-1", fake)
	svc := NewService(registry, nil)
	ctx := context.Background()

	require.NoError(t, svc.CreateTable(ctx, "conn-1", usersTable()))
	require.Len(t, fake.ExecutedQueries, 1)
	assert.Contains(t, fake.ExecutedQueries[0], "CREATE TABLE")

	require.NoError(t, svc.DropColumn(ctx, "conn-1", "users", "note"))
	assert.Contains(t, fake.ExecutedQueries[1], `DROP COLUMN "note"`)
}

func TestDDLConvertsResultErrorToSchemaError(t *testing.T) {
	registry := adaptertest.NewFakeRegistry()
	fake := adaptertest.NewFake(dbcapabilities.MySQL)
	fake.QueryResult = adapter.ErrorResult(assert.AnError)
	registry.Add("conn-1", fake)
	svc := NewService(registry, nil)

	err := svc.DropTable(context.Background(), "conn-1", "users")
	require.Error(t, err)

	var schemaErr *adapter.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "users", schemaErr.Table)
}

func TestDDLRejectsNonSQLConnection(t *testing.T) {
	registry := adaptertest.NewFakeRegistry()
	registry.Add("conn-1", adaptertest.NewFake(dbcapabilities.MongoDB))
	svc := NewService(registry, nil)

	err := svc.CreateIndex(context.Background(), "conn-1", "users",
		adapter.IndexInfo{Name: "idx", Columns: []string{"x"}})
	assert.True(t, adapter.IsUnsupported(err))
}

func TestDDLUnknownConnection(t *testing.T) {
	svc := NewService(adaptertest.NewFakeRegistry(), nil)
	err := svc.DropTable(context.Background(), "ghost", "users")
	assert.True(t, adapter.IsNotFound(err))
}

func TestCreateTableRoundTripSQLite(t *testing.T) {
	lite := sqlite.NewAdapter(adapter.ConnectionConfig{DatabaseName: ":memory:"})
	ctx := context.Background()
	require.NoError(t, lite.Connect(ctx))
	t.Cleanup(func() { _ = lite.Disconnect(ctx) })

	registry := adaptertest.NewFakeRegistry()
	registry.Add("conn-1", lite)
	svc := NewService(registry, nil)

	require.NoError(t, svc.CreateTable(ctx, "conn-1", adapter.TableInfo{
		Name: "t",
		Columns: []adapter.ColumnInfo{
			{Name: "id", DataType: "INTEGER", IsPrimaryKey: true, IsAutoIncrement: true},
			{Name: "name", DataType: "TEXT"},
		},
	}))

	info, err := svc.GetTableSchema(ctx, "conn-1", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, info.PrimaryKey)
	require.Len(t, info.Columns, 2)
	assert.True(t, info.Columns[0].IsPrimaryKey)
	assert.True(t, info.Columns[0].IsAutoIncrement)
}
