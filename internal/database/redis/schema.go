package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 500

// ListTables returns all key names in the logical database, sorted. Redis has
// no tables; keys are the closest unit of enumeration.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := a.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}

	keys, err := a.scanKeys(ctx, "*")
	if err != nil {
		return nil, adapter.WrapError(dbcapabilities.Redis, "list tables", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetTableSchema synthesizes a schema for the keys matching tableName, which
// is treated as a glob pattern ("session:*"). Each Redis value type observed
// becomes one column, with the key count recorded in the column comment.
func (a *Adapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := a.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}

	keys, err := a.scanKeys(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.Redis, tableName, err)
	}
	if len(keys) == 0 {
		return nil, adapter.NewSchemaError(dbcapabilities.Redis, tableName, adapter.ErrNotFound)
	}

	counts := make(map[string]int)
	for _, key := range keys {
		keyType, err := a.client.Type(ctx, key).Result()
		if err != nil {
			return nil, adapter.NewSchemaError(dbcapabilities.Redis, tableName, err)
		}
		counts[keyType]++
	}

	valueTypes := make([]string, 0, len(counts))
	for keyType := range counts {
		valueTypes = append(valueTypes, keyType)
	}
	sort.Strings(valueTypes)

	columns := make([]adapter.ColumnInfo, 0, len(valueTypes))
	for _, keyType := range valueTypes {
		columns = append(columns, adapter.ColumnInfo{
			Name:       keyType,
			DataType:   keyType,
			IsNullable: true,
			Comment:    fmt.Sprintf("%d keys", counts[keyType]),
		})
	}

	return &adapter.TableInfo{
		Name:    tableName,
		Columns: columns,
	}, nil
}

// scanKeys walks SCAN cursors until exhaustion for the given pattern.
func (a *Adapter) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := a.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}
