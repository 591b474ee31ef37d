package mysql

import (
	"context"

	"github.com/Algodons/algo-dbcore/internal/database/common"
	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// ListTables returns the base table names in the connected database, sorted.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := a.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, adapter.WrapError(dbcapabilities.MySQL, "list tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, adapter.WrapError(dbcapabilities.MySQL, "list tables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.WrapError(dbcapabilities.MySQL, "list tables", err)
	}
	return tables, nil
}

// GetTableSchema introspects one table through INFORMATION_SCHEMA.
func (a *Adapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := a.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}

	columns, primaryKey, err := a.tableColumns(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.MySQL, tableName, err)
	}
	if len(columns) == 0 {
		return nil, adapter.NewSchemaError(dbcapabilities.MySQL, tableName, adapter.ErrNotFound)
	}

	indexes, err := a.tableIndexes(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.MySQL, tableName, err)
	}
	foreignKeys, err := a.tableForeignKeys(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.MySQL, tableName, err)
	}

	return &adapter.TableInfo{
		Name:        tableName,
		Columns:     columns,
		Indexes:     indexes,
		ForeignKeys: foreignKeys,
		PrimaryKey:  primaryKey,
	}, nil
}

func (a *Adapter) tableColumns(ctx context.Context, tableName string) ([]adapter.ColumnInfo, []string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE = 'YES',
			COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			COLUMN_KEY = 'PRI',
			EXTRA LIKE '%auto_increment%'
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, tableName)
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

// tableIndexes returns the table's secondary indexes, excluding the PRIMARY
// index which is reported through TableInfo.PrimaryKey.
func (a *Adapter) tableIndexes(ctx context.Context, tableName string) ([]adapter.IndexInfo, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE = 0
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND INDEX_NAME <> 'PRIMARY'
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`, tableName)
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
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			kcu.CONSTRAINT_NAME,
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME,
			rc.UPDATE_RULE,
			rc.DELETE_RULE
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
			ON rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND rc.CONSTRAINT_SCHEMA = kcu.TABLE_SCHEMA
		WHERE kcu.TABLE_SCHEMA = DATABASE()
			AND kcu.TABLE_NAME = ?
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`, tableName)
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
