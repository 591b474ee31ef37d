package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexAccumulatorPreservesFirstSeenOrder(t *testing.T) {
	acc := NewIndexAccumulator()
	acc.Add("idx_b", "col1", false)
	acc.Add("idx_a", "col1", true)
	acc.Add("idx_b", "col2", false)

	result := acc.Result()
	require.Len(t, result, 2)

	assert.Equal(t, "idx_b", result[0].Name)
	assert.Equal(t, []string{"col1", "col2"}, result[0].Columns)
	assert.False(t, result[0].IsUnique)

	assert.Equal(t, "idx_a", result[1].Name)
	assert.Equal(t, []string{"col1"}, result[1].Columns)
	assert.True(t, result[1].IsUnique)
}

func TestForeignKeyAccumulatorGroupsColumnPairs(t *testing.T) {
	acc := NewForeignKeyAccumulator()
	acc.Add("fk_orders_user", "user_id", "users", "id", "CASCADE", "RESTRICT")
	acc.Add("fk_orders_item", "item_id", "items", "id", "NO ACTION", "NO ACTION")
	acc.Add("fk_orders_user", "user_tenant", "users", "tenant", "CASCADE", "RESTRICT")

	result := acc.Result()
	require.Len(t, result, 2)

	first := result[0]
	assert.Equal(t, "fk_orders_user", first.Name)
	assert.Equal(t, []string{"user_id", "user_tenant"}, first.Columns)
	assert.Equal(t, "users", first.ReferencedTable)
	assert.Equal(t, []string{"id", "tenant"}, first.ReferencedColumns)
	assert.Equal(t, "CASCADE", first.OnUpdate)
	assert.Equal(t, "RESTRICT", first.OnDelete)

	assert.Equal(t, "fk_orders_item", result[1].Name)
}

func TestAccumulatorsEmpty(t *testing.T) {
	assert.Empty(t, NewIndexAccumulator().Result())
	assert.Empty(t, NewForeignKeyAccumulator().Result())
}
