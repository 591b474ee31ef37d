package schema

import "github.com/Algodons/algo-dbcore/pkg/adapter"

// SchemaDiff describes the differences between two discovered schemas, from
// the perspective of migrating old to new.
type SchemaDiff struct {
	AddedTables    []string    `json:"addedTables,omitempty"`
	RemovedTables  []string    `json:"removedTables,omitempty"`
	ModifiedTables []TableDiff `json:"modifiedTables,omitempty"`
}

// Empty reports whether the two schemas were identical.
func (d SchemaDiff) Empty() bool {
	return len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ModifiedTables) == 0
}

// TableDiff describes the column-level differences of one table present in
// both schemas.
type TableDiff struct {
	Name            string       `json:"name"`
	AddedColumns    []string     `json:"addedColumns,omitempty"`
	RemovedColumns  []string     `json:"removedColumns,omitempty"`
	ModifiedColumns []ColumnDiff `json:"modifiedColumns,omitempty"`
}

// ColumnDiff describes one column whose type or nullability changed.
type ColumnDiff struct {
	Name        string `json:"name"`
	OldType     string `json:"oldType"`
	NewType     string `json:"newType"`
	OldNullable bool   `json:"oldNullable"`
	NewNullable bool   `json:"newNullable"`
}

// CompareSchemas diffs two table sets by name. Tables and columns are matched
// by name only; renames read as a remove plus an add.
func CompareSchemas(old, new []adapter.TableInfo) SchemaDiff {
	oldByName := tablesByName(old)
	newByName := tablesByName(new)

	var diff SchemaDiff
	for _, t := range new {
		if _, ok := oldByName[t.Name]; !ok {
			diff.AddedTables = append(diff.AddedTables, t.Name)
		}
	}
	for _, t := range old {
		newTable, ok := newByName[t.Name]
		if !ok {
			diff.RemovedTables = append(diff.RemovedTables, t.Name)
			continue
		}
		if td := compareTables(t, newTable); !tableDiffEmpty(td) {
			diff.ModifiedTables = append(diff.ModifiedTables, td)
		}
	}
	return diff
}

func compareTables(old, new adapter.TableInfo) TableDiff {
	oldCols := columnsByName(old.Columns)
	newCols := columnsByName(new.Columns)

	td := TableDiff{Name: old.Name}
	for _, col := range new.Columns {
		if _, ok := oldCols[col.Name]; !ok {
			td.AddedColumns = append(td.AddedColumns, col.Name)
		}
	}
	for _, col := range old.Columns {
		newCol, ok := newCols[col.Name]
		if !ok {
			td.RemovedColumns = append(td.RemovedColumns, col.Name)
			continue
		}
		if col.DataType != newCol.DataType || col.IsNullable != newCol.IsNullable {
			td.ModifiedColumns = append(td.ModifiedColumns, ColumnDiff{
				Name:        col.Name,
				OldType:     col.DataType,
				NewType:     newCol.DataType,
				OldNullable: col.IsNullable,
				NewNullable: newCol.IsNullable,
			})
		}
	}
	return td
}

func tableDiffEmpty(td TableDiff) bool {
	return len(td.AddedColumns) == 0 && len(td.RemovedColumns) == 0 && len(td.ModifiedColumns) == 0
}

func tablesByName(tables []adapter.TableInfo) map[string]adapter.TableInfo {
	m := make(map[string]adapter.TableInfo, len(tables))
	for _, t := range tables {
		m[t.Name] = t
	}
	return m
}

func columnsByName(columns []adapter.ColumnInfo) map[string]adapter.ColumnInfo {
	m := make(map[string]adapter.ColumnInfo, len(columns))
	for _, c := range columns {
		m[c.Name] = c
	}
	return m
}
