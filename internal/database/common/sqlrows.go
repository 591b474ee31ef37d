package common

import (
	"database/sql"
	"strings"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
)

// CollectSQLRows drains a database/sql result set into the uniform QueryResult
// shape, decoding driver []byte values as strings. It closes the rows.
func CollectSQLRows(rows *sql.Rows, verb string) *adapter.QueryResult {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return adapter.ErrorResult(err)
	}
	fields := make([]adapter.FieldInfo, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, t := range types {
			fields[i] = adapter.FieldInfo{Name: columns[i], DataType: t.DatabaseTypeName()}
		}
	} else {
		for i, name := range columns {
			fields[i] = adapter.FieldInfo{Name: name}
		}
	}

	var out []map[string]interface{}
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return adapter.ErrorResult(err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return adapter.ErrorResult(err)
	}

	return &adapter.QueryResult{
		Rows:     out,
		Fields:   fields,
		RowCount: int64(len(out)),
		Command:  verb,
	}
}

// StatementVerb returns the uppercased first keyword of a SQL statement.
func StatementVerb(query string) string {
	trimmed := strings.TrimSpace(query)
	if i := strings.IndexAny(trimmed, " \t\r\n("); i > 0 {
		trimmed = trimmed[:i]
	}
	return strings.ToUpper(trimmed)
}

// ReturnsRows reports whether a statement verb produces a result set.
func ReturnsRows(verb string) bool {
	switch verb {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "PRAGMA", "VALUES":
		return true
	}
	return false
}
