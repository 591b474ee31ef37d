package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

func table(name string, columns ...adapter.ColumnInfo) adapter.TableInfo {
	return adapter.TableInfo{Name: name, Columns: columns}
}

func col(name, dataType string, nullable bool) adapter.ColumnInfo {
	return adapter.ColumnInfo{Name: name, DataType: dataType, IsNullable: nullable}
}

func TestCompareSchemasIdentical(t *testing.T) {
	a := []adapter.TableInfo{table("users", col("id", "INTEGER", false))}
	assert.True(t, CompareSchemas(a, a).Empty())
}

func TestCompareSchemasAddedAndRemovedTables(t *testing.T) {
	old := []adapter.TableInfo{table("users"), table("sessions")}
	updated := []adapter.TableInfo{table("users"), table("audit_log")}

	diff := CompareSchemas(old, updated)
	assert.Equal(t, []string{"audit_log"}, diff.AddedTables)
	assert.Equal(t, []string{"sessions"}, diff.RemovedTables)
	assert.Empty(t, diff.ModifiedTables)
}

func TestCompareSchemasColumnChanges(t *testing.T) {
	old := []adapter.TableInfo{table("users",
		col("id", "INTEGER", false),
		col("name", "TEXT", true),
		col("age", "INTEGER", true),
	)}
	updated := []adapter.TableInfo{table("users",
		col("id", "INTEGER", false),
		col("name", "VARCHAR(100)", false),
		col("email", "TEXT", true),
	)}

	diff := CompareSchemas(old, updated)
	require.Len(t, diff.ModifiedTables, 1)
	td := diff.ModifiedTables[0]

	assert.Equal(t, "users", td.Name)
	assert.Equal(t, []string{"email"}, td.AddedColumns)
	assert.Equal(t, []string{"age"}, td.RemovedColumns)
	require.Len(t, td.ModifiedColumns, 1)
	assert.Equal(t, "name", td.ModifiedColumns[0].Name)
	assert.Equal(t, "TEXT", td.ModifiedColumns[0].OldType)
	assert.Equal(t, "VARCHAR(100)", td.ModifiedColumns[0].NewType)
	assert.True(t, td.ModifiedColumns[0].OldNullable)
	assert.False(t, td.ModifiedColumns[0].NewNullable)
}

// Swapping the arguments must swap the direction of every reported change.
func TestCompareSchemasAntiSymmetry(t *testing.T) {
	a := []adapter.TableInfo{table("users", col("id", "INTEGER", false)), table("orders")}
	b := []adapter.TableInfo{table("users", col("id", "BIGINT", false)), table("items")}

	forward := CompareSchemas(a, b)
	backward := CompareSchemas(b, a)

	assert.Equal(t, forward.AddedTables, backward.RemovedTables)
	assert.Equal(t, forward.RemovedTables, backward.AddedTables)

	require.Len(t, forward.ModifiedTables, 1)
	require.Len(t, backward.ModifiedTables, 1)
	assert.Equal(t,
		forward.ModifiedTables[0].ModifiedColumns[0].OldType,
		backward.ModifiedTables[0].ModifiedColumns[0].NewType)
}

func TestCompareSchemasRenameReadsAsRemoveAndAdd(t *testing.T) {
	old := []adapter.TableInfo{table("users", col("name", "TEXT", true))}
	updated := []adapter.TableInfo{table("users", col("full_name", "TEXT", true))}

	diff := CompareSchemas(old, updated)
	require.Len(t, diff.ModifiedTables, 1)
	assert.Equal(t, []string{"full_name"}, diff.ModifiedTables[0].AddedColumns)
	assert.Equal(t, []string{"name"}, diff.ModifiedTables[0].RemovedColumns)
}
