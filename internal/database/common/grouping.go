// Package common holds small helpers shared by the engine adapter packages.
package common

import "github.com/Algodons/algo-dbcore/pkg/adapter"

// IndexAccumulator groups per-column index rows into IndexInfo values. Catalog
// queries return one row per (index, column); the accumulator collapses them
// while preserving the order in which index names are first seen and the
// column order within each index.
type IndexAccumulator struct {
	order  []string
	byName map[string]*adapter.IndexInfo
}

// NewIndexAccumulator returns an empty accumulator.
func NewIndexAccumulator() *IndexAccumulator {
	return &IndexAccumulator{byName: make(map[string]*adapter.IndexInfo)}
}

// Add records one (index, column) row.
func (a *IndexAccumulator) Add(name, column string, unique bool) {
	idx, ok := a.byName[name]
	if !ok {
		idx = &adapter.IndexInfo{Name: name, IsUnique: unique}
		a.byName[name] = idx
		a.order = append(a.order, name)
	}
	idx.Columns = append(idx.Columns, column)
}

// Result returns the grouped indexes in first-seen order.
func (a *IndexAccumulator) Result() []adapter.IndexInfo {
	out := make([]adapter.IndexInfo, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, *a.byName[name])
	}
	return out
}

// ForeignKeyAccumulator groups per-column foreign key rows into ForeignKeyInfo
// values, preserving first-seen constraint order and column-pair order.
type ForeignKeyAccumulator struct {
	order  []string
	byName map[string]*adapter.ForeignKeyInfo
}

// NewForeignKeyAccumulator returns an empty accumulator.
func NewForeignKeyAccumulator() *ForeignKeyAccumulator {
	return &ForeignKeyAccumulator{byName: make(map[string]*adapter.ForeignKeyInfo)}
}

// Add records one (constraint, column, referenced column) row.
func (a *ForeignKeyAccumulator) Add(name, column, refTable, refColumn, onUpdate, onDelete string) {
	fk, ok := a.byName[name]
	if !ok {
		fk = &adapter.ForeignKeyInfo{
			Name:            name,
			ReferencedTable: refTable,
			OnUpdate:        onUpdate,
			OnDelete:        onDelete,
		}
		a.byName[name] = fk
		a.order = append(a.order, name)
	}
	fk.Columns = append(fk.Columns, column)
	fk.ReferencedColumns = append(fk.ReferencedColumns, refColumn)
}

// Result returns the grouped foreign keys in first-seen order.
func (a *ForeignKeyAccumulator) Result() []adapter.ForeignKeyInfo {
	out := make([]adapter.ForeignKeyInfo, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, *a.byName[name])
	}
	return out
}
