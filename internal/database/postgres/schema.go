package postgres

import (
	"context"

	"github.com/Algodons/algo-dbcore/internal/database/common"
	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// ListTables returns the base table names in the public schema, sorted.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := a.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}

	rows, err := a.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, adapter.WrapError(dbcapabilities.PostgreSQL, "list tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, adapter.WrapError(dbcapabilities.PostgreSQL, "list tables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.WrapError(dbcapabilities.PostgreSQL, "list tables", err)
	}
	return tables, nil
}

// GetTableSchema introspects one table through information_schema and the
// pg_catalog index views.
func (a *Adapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := a.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}

	columns, primaryKey, err := a.tableColumns(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.PostgreSQL, tableName, err)
	}
	if len(columns) == 0 {
		return nil, adapter.NewSchemaError(dbcapabilities.PostgreSQL, tableName, adapter.ErrNotFound)
	}

	indexes, err := a.tableIndexes(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.PostgreSQL, tableName, err)
	}
	foreignKeys, err := a.tableForeignKeys(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.PostgreSQL, tableName, err)
	}

	return &adapter.TableInfo{
		Name:        tableName,
		Schema:      "public",
		Columns:     columns,
		Indexes:     indexes,
		ForeignKeys: foreignKeys,
		PrimaryKey:  primaryKey,
	}, nil
}

func (a *Adapter) tableColumns(ctx context.Context, tableName string) ([]adapter.ColumnInfo, []string, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			pk.column_name IS NOT NULL AS is_primary_key,
			(c.is_identity = 'YES' OR COALESCE(c.column_default LIKE 'nextval(%', false)) AS is_auto_increment
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = 'public'
				AND tc.table_name = $1
		) pk ON pk.column_name = c.column_name
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position`, tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []adapter.ColumnInfo
	var primaryKey []string
	for rows.Next() {
		var col adapter.ColumnInfo
		var columnDefault *string
		var varcharLength, numericPrecision, numericScale *int
		if err := rows.Scan(
			&col.Name, &col.DataType, &col.IsNullable, &columnDefault,
			&varcharLength, &numericPrecision, &numericScale,
			&col.IsPrimaryKey, &col.IsAutoIncrement,
		); err != nil {
			return nil, nil, err
		}
		col.ColumnDefault = columnDefault
		col.VarcharLength = varcharLength
		col.NumericPrecision = numericPrecision
		col.NumericScale = numericScale
		if col.IsPrimaryKey {
			primaryKey = append(primaryKey, col.Name)
		}
		columns = append(columns, col)
	}
	return columns, primaryKey, rows.Err()
}

// tableIndexes returns the table's secondary indexes. The primary key index is
// excluded: it is reported through TableInfo.PrimaryKey instead.
func (a *Adapter) tableIndexes(ctx context.Context, tableName string) ([]adapter.IndexInfo, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT i.relname, att.attname, ix.indisunique
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute att ON att.attrelid = t.oid AND att.attnum = k.attnum
		WHERE n.nspname = 'public' AND t.relname = $1 AND NOT ix.indisprimary
		ORDER BY i.relname, k.ord`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	acc := common.NewIndexAccumulator()
	for rows.Next() {
		var name, column string
		var unique bool
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, err
		}
		acc.Add(name, column, unique)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return acc.Result(), nil
}

func (a *Adapter) tableForeignKeys(ctx context.Context, tableName string) ([]adapter.ForeignKeyInfo, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name,
			ccu.column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
		ORDER BY tc.constraint_name, kcu.ordinal_position`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	acc := common.NewForeignKeyAccumulator()
	for rows.Next() {
		var name, column, refTable, refColumn, onUpdate, onDelete string
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &onUpdate, &onDelete); err != nil {
			return nil, err
		}
		acc.Add(name, column, refTable, refColumn, onUpdate, onDelete)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return acc.Result(), nil
}
