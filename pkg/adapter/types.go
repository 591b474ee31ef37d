package adapter

import (
	"encoding/json"
	"time"
)

// QueryResult is the uniform envelope for ad-hoc query execution. Native query
// failures are carried in Error rather than raised; when Error is non-empty the
// row and count fields are not meaningful.
type QueryResult struct {
	Rows     []map[string]interface{} `json:"rows,omitempty"`
	Fields   []FieldInfo              `json:"fields,omitempty"`
	RowCount int64                    `json:"rowCount"`
	Command  string                   `json:"command,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// Failed reports whether the result carries a query execution error.
func (r *QueryResult) Failed() bool {
	return r != nil && r.Error != ""
}

// ErrorResult builds a QueryResult carrying a native query failure as data.
func ErrorResult(err error) *QueryResult {
	return &QueryResult{Error: err.Error()}
}

// FieldInfo describes one column of a query result, as reported by the engine.
type FieldInfo struct {
	Name     string `json:"name"`
	DataType string `json:"dataType,omitempty"`
}

// ColumnInfo describes one column of a table. DataType is the engine-native
// type string; no cross-engine type unification is attempted.
type ColumnInfo struct {
	Name             string  `json:"name"`
	DataType         string  `json:"dataType"`
	IsNullable       bool    `json:"isNullable"`
	IsPrimaryKey     bool    `json:"isPrimaryKey"`
	IsAutoIncrement  bool    `json:"isAutoIncrement"`
	ColumnDefault    *string `json:"columnDefault,omitempty"`
	VarcharLength    *int    `json:"varcharLength,omitempty"`
	NumericPrecision *int    `json:"numericPrecision,omitempty"`
	NumericScale     *int    `json:"numericScale,omitempty"`
	Comment          string  `json:"comment,omitempty"`
}

// IndexInfo describes one index with its columns in declaration order.
type IndexInfo struct {
	Name     string   `json:"name"`
	Columns  []string `json:"columns,omitempty"`
	IsUnique bool     `json:"isUnique,omitempty"`
}

// ForeignKeyInfo describes one foreign key constraint with its column pairs in
// declaration order.
type ForeignKeyInfo struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referencedTable"`
	ReferencedColumns []string `json:"referencedColumns"`
	OnUpdate          string   `json:"onUpdate,omitempty"`
	OnDelete          string   `json:"onDelete,omitempty"`
}

// TableInfo is the normalized description of one table or collection. For
// document, key-value, and vector engines this is a synthesized table: columns
// represent inferred or engine-defined fields, not physical storage.
type TableInfo struct {
	Name        string           `json:"name"`
	Schema      string           `json:"schema,omitempty"`
	Columns     []ColumnInfo     `json:"columns"`
	Indexes     []IndexInfo      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKeyInfo `json:"foreignKeys,omitempty"`
	PrimaryKey  []string         `json:"primaryKey,omitempty"`
}

// PerformanceMetrics describes the cost of one query. The shape is best-effort:
// absent fields mean "not available for this engine", not zero.
type PerformanceMetrics struct {
	ExecutionTime time.Duration   `json:"executionTime"`
	PlanningTime  *time.Duration  `json:"planningTime,omitempty"`
	RowsReturned  *int64          `json:"rowsReturned,omitempty"`
	RowsScanned   *int64          `json:"rowsScanned,omitempty"`
	Plan          json.RawMessage `json:"plan,omitempty"`
}

// BackupConfig carries optional knobs for CreateBackup. Engines interpret the
// fields they understand and ignore the rest.
type BackupConfig struct {
	// Destination is a directory (file-based engines) or backend name
	// (job-based engines). Empty means the engine default.
	Destination string `json:"destination,omitempty"`

	// Name overrides the generated backup identifier where the engine allows it.
	Name string `json:"name,omitempty"`
}
