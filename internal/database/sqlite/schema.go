package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Algodons/algo-dbcore/internal/database/common"
	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// ListTables returns the user table names, sorted. Internal sqlite_* tables
// are excluded.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if err := a.state.RequireConnected("list tables"); err != nil {
		return nil, err
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, adapter.WrapError(dbcapabilities.SQLite, "list tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, adapter.WrapError(dbcapabilities.SQLite, "list tables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.WrapError(dbcapabilities.SQLite, "list tables", err)
	}
	return tables, nil
}

// GetTableSchema introspects one table through the PRAGMA functions.
func (a *Adapter) GetTableSchema(ctx context.Context, tableName string) (*adapter.TableInfo, error) {
	if err := a.state.RequireConnected("get table schema"); err != nil {
		return nil, err
	}

	columns, primaryKey, err := a.tableColumns(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.SQLite, tableName, err)
	}
	if len(columns) == 0 {
		return nil, adapter.NewSchemaError(dbcapabilities.SQLite, tableName, adapter.ErrNotFound)
	}

	indexes, err := a.tableIndexes(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.SQLite, tableName, err)
	}
	foreignKeys, err := a.tableForeignKeys(ctx, tableName)
	if err != nil {
		return nil, adapter.NewSchemaError(dbcapabilities.SQLite, tableName, err)
	}

	return &adapter.TableInfo{
		Name:        tableName,
		Columns:     columns,
		Indexes:     indexes,
		ForeignKeys: foreignKeys,
		PrimaryKey:  primaryKey,
	}, nil
}

// tableColumns reads pragma_table_info. A single-column INTEGER primary key is
// an alias for the rowid and auto-increments.
func (a *Adapter) tableColumns(ctx context.Context, tableName string) ([]adapter.ColumnInfo, []string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`,
		tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []adapter.ColumnInfo
	var primaryKey []string
	pkCount := 0
	for rows.Next() {
		var col adapter.ColumnInfo
		var notNull, pkRank int
		var dflt sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &notNull, &dflt, &pkRank); err != nil {
			return nil, nil, err
		}
		col.IsNullable = notNull == 0 && pkRank == 0
		col.IsPrimaryKey = pkRank > 0
		if dflt.Valid {
			value := dflt.String
			col.ColumnDefault = &value
		}
		if col.IsPrimaryKey {
			pkCount++
			primaryKey = append(primaryKey, col.Name)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if pkCount == 1 {
		for i := range columns {
			if columns[i].IsPrimaryKey && columns[i].DataType == "INTEGER" {
				columns[i].IsAutoIncrement = true
			}
		}
	}
	return columns, primaryKey, nil
}

// tableIndexes reads pragma_index_list / pragma_index_info, skipping the
// implicit indexes SQLite creates for primary key and unique constraints.
func (a *Adapter) tableIndexes(ctx context.Context, tableName string) ([]adapter.IndexInfo, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name, "unique" FROM pragma_index_list(?) WHERE origin = 'c' ORDER BY seq`,
		tableName)
	if err != nil {
		return nil, err
	}

	type indexRow struct {
		name   string
		unique bool
	}
	var list []indexRow
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.name, &r.unique); err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	acc := common.NewIndexAccumulator()
	for _, idx := range list {
		cols, err := a.db.QueryContext(ctx,
			`SELECT name FROM pragma_index_info(?) ORDER BY seqno`, idx.name)
		if err != nil {
			return nil, err
		}
		for cols.Next() {
			var column string
			if err := cols.Scan(&column); err != nil {
				cols.Close()
				return nil, err
			}
			acc.Add(idx.name, column, idx.unique)
		}
		if err := cols.Err(); err != nil {
			cols.Close()
			return nil, err
		}
		cols.Close()
	}
	return acc.Result(), nil
}

// tableForeignKeys reads pragma_foreign_key_list. SQLite names no constraints,
// so foreign keys are keyed by their list id.
func (a *Adapter) tableForeignKeys(ctx context.Context, tableName string) ([]adapter.ForeignKeyInfo, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, "table", "from", "to", on_update, on_delete
		FROM pragma_foreign_key_list(?)
		ORDER BY id, seq`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	acc := common.NewForeignKeyAccumulator()
	for rows.Next() {
		var id int
		var refTable, column, refColumn, onUpdate, onDelete string
		if err := rows.Scan(&id, &refTable, &column, &refColumn, &onUpdate, &onDelete); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("fk_%s_%d", tableName, id)
		acc.Add(name, column, refTable, refColumn, onUpdate, onDelete)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return acc.Result(), nil
}
