package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// dialect renders DDL for one SQL engine. The three engines agree on most of
// the grammar; the differences live in identifier quoting, auto-increment, and
// the column-type-change and index-drop statements.
type dialect struct {
	id dbcapabilities.DatabaseID
}

// dialectFor returns the dialect for an engine, or false for engines without
// SQL DDL.
func dialectFor(id dbcapabilities.DatabaseID) (dialect, bool) {
	switch id {
	case dbcapabilities.PostgreSQL, dbcapabilities.MySQL, dbcapabilities.SQLite:
		return dialect{id: id}, true
	}
	return dialect{}, false
}

// quote quotes one identifier.
func (d dialect) quote(ident string) string {
	if d.id == dbcapabilities.MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// columnDef renders one column definition. inlinePK marks the column as the
// table's single-column primary key, which SQLite requires inline for
// AUTOINCREMENT to apply.
func (d dialect) columnDef(col adapter.ColumnInfo, inlinePK bool) string {
	var b strings.Builder
	b.WriteString(d.quote(col.Name))
	b.WriteByte(' ')

	switch {
	case col.IsAutoIncrement && d.id == dbcapabilities.PostgreSQL:
		b.WriteString("SERIAL")
	case col.IsAutoIncrement && d.id == dbcapabilities.SQLite:
		b.WriteString("INTEGER")
	default:
		b.WriteString(col.DataType)
	}

	if inlinePK {
		b.WriteString(" PRIMARY KEY")
		if col.IsAutoIncrement && d.id == dbcapabilities.SQLite {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if col.IsAutoIncrement && d.id == dbcapabilities.MySQL {
		b.WriteString(" AUTO_INCREMENT")
	}
	if !col.IsNullable && !inlinePK {
		b.WriteString(" NOT NULL")
	}
	if col.ColumnDefault != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(*col.ColumnDefault)
	}
	return b.String()
}

// primaryKey resolves the table's key columns. An empty TableInfo.PrimaryKey
// falls back to the columns' IsPrimaryKey flags, in column order.
func primaryKey(t adapter.TableInfo) []string {
	if len(t.PrimaryKey) > 0 {
		return t.PrimaryKey
	}
	var key []string
	for _, col := range t.Columns {
		if col.IsPrimaryKey {
			key = append(key, col.Name)
		}
	}
	return key
}

// createTable renders CREATE TABLE. A single-column primary key is declared
// inline; composite keys get a trailing PRIMARY KEY clause.
func (d dialect) createTable(t adapter.TableInfo) string {
	pk := primaryKey(t)
	inlinePK := len(pk) == 1

	defs := make([]string, 0, len(t.Columns)+1)
	for _, col := range t.Columns {
		defs = append(defs, d.columnDef(col, inlinePK && col.Name == pk[0]))
	}
	if len(pk) > 1 {
		quoted := make([]string, len(pk))
		for i, name := range pk {
			quoted[i] = d.quote(name)
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", d.quote(t.Name), strings.Join(defs, ", "))
}

func (d dialect) dropTable(table string) string {
	return "DROP TABLE " + d.quote(table)
}

func (d dialect) addColumn(table string, col adapter.ColumnInfo) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.quote(table), d.columnDef(col, false))
}

func (d dialect) dropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.quote(table), d.quote(column))
}

// modifyColumnType renders the column-type-change statement. SQLite has no
// such statement; changing a column type there means rebuilding the table.
func (d dialect) modifyColumnType(table, column, newType string) (string, error) {
	switch d.id {
	case dbcapabilities.PostgreSQL:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
			d.quote(table), d.quote(column), newType), nil
	case dbcapabilities.MySQL:
		return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s",
			d.quote(table), d.quote(column), newType), nil
	default:
		return "", adapter.NewUnsupportedOperationError(d.id, "modify column type",
			"requires rebuilding the table")
	}
}

func (d dialect) createIndex(table string, index adapter.IndexInfo) string {
	unique := ""
	if index.IsUnique {
		unique = "UNIQUE "
	}
	quoted := make([]string, len(index.Columns))
	for i, name := range index.Columns {
		quoted[i] = d.quote(name)
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, d.quote(index.Name), d.quote(table), strings.Join(quoted, ", "))
}

// dropIndex renders DROP INDEX. MySQL scopes index names to their table.
func (d dialect) dropIndex(table, index string) string {
	if d.id == dbcapabilities.MySQL {
		return fmt.Sprintf("DROP INDEX %s ON %s", d.quote(index), d.quote(table))
	}
	return "DROP INDEX " + d.quote(index)
}

// execDDL runs one DDL statement through the adapter and converts an in-result
// failure into a raised SchemaError, since DDL callers have no use for
// errors-as-data.
func (s *Service) execDDL(ctx context.Context, a adapter.DatabaseAdapter, table, statement string) error {
	result, err := a.ExecuteQuery(ctx, statement)
	if err != nil {
		return err
	}
	if result.Failed() {
		return adapter.NewSchemaError(a.Type(), table, fmt.Errorf("%s", result.Error))
	}
	return nil
}

// sqlAdapter resolves the adapter for a connection and checks it speaks SQL.
func (s *Service) sqlAdapter(connectionID, operation string) (adapter.DatabaseAdapter, dialect, error) {
	a, err := s.adapterFor(connectionID)
	if err != nil {
		return nil, dialect{}, err
	}
	d, ok := dialectFor(a.Type())
	if !ok {
		return nil, dialect{}, adapter.NewUnsupportedOperationError(a.Type(), operation,
			"engine has no SQL DDL")
	}
	return a, d, nil
}

// CreateTable creates a table on a SQL connection.
func (s *Service) CreateTable(ctx context.Context, connectionID string, table adapter.TableInfo) error {
	a, d, err := s.sqlAdapter(connectionID, "create table")
	if err != nil {
		return err
	}
	return s.execDDL(ctx, a, table.Name, d.createTable(table))
}

// DropTable drops a table on a SQL connection.
func (s *Service) DropTable(ctx context.Context, connectionID, table string) error {
	a, d, err := s.sqlAdapter(connectionID, "drop table")
	if err != nil {
		return err
	}
	return s.execDDL(ctx, a, table, d.dropTable(table))
}

// AddColumn adds a column to a table on a SQL connection.
func (s *Service) AddColumn(ctx context.Context, connectionID, table string, col adapter.ColumnInfo) error {
	a, d, err := s.sqlAdapter(connectionID, "add column")
	if err != nil {
		return err
	}
	return s.execDDL(ctx, a, table, d.addColumn(table, col))
}

// DropColumn drops a column from a table on a SQL connection.
func (s *Service) DropColumn(ctx context.Context, connectionID, table, column string) error {
	a, d, err := s.sqlAdapter(connectionID, "drop column")
	if err != nil {
		return err
	}
	return s.execDDL(ctx, a, table, d.dropColumn(table, column))
}

// ModifyColumnType changes a column's type on a SQL connection. SQLite fails
// with UnsupportedOperationError.
func (s *Service) ModifyColumnType(ctx context.Context, connectionID, table, column, newType string) error {
	a, d, err := s.sqlAdapter(connectionID, "modify column type")
	if err != nil {
		return err
	}
	statement, err := d.modifyColumnType(table, column, newType)
	if err != nil {
		return err
	}
	return s.execDDL(ctx, a, table, statement)
}

// CreateIndex creates an index on a SQL connection.
func (s *Service) CreateIndex(ctx context.Context, connectionID, table string, index adapter.IndexInfo) error {
	a, d, err := s.sqlAdapter(connectionID, "create index")
	if err != nil {
		return err
	}
	return s.execDDL(ctx, a, table, d.createIndex(table, index))
}

// DropIndex drops an index on a SQL connection.
func (s *Service) DropIndex(ctx context.Context, connectionID, table, index string) error {
	a, d, err := s.sqlAdapter(connectionID, "drop index")
	if err != nil {
		return err
	}
	return s.execDDL(ctx, a, table, d.dropIndex(table, index))
}
