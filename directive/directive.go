package directive

import (
	"fmt"

	"github.com/ridoystarlord/sqldelete/dialect"
)

// Directive is one mutation to attempt against a single table. The set of
// directives is closed: Delete and NullOut.
type Directive interface {
	Database() string
	// Table is the bare table name, without its default schema qualifier.
	Table() string
	Condition() string
	// SQL renders the statement in the SQL Server form.
	SQL() string
	Render(d dialect.Dialect) string
	String() string

	isDirective()
}

type target struct {
	database  string
	table     string
	condition string
}

func newTarget(database, table, condition string) target {
	return target{
		database:  database,
		table:     dialect.StripSchema(table),
		condition: condition,
	}
}

func (t target) Database() string  { return t.database }
func (t target) Table() string     { return t.table }
func (t target) Condition() string { return t.condition }

// Delete removes every row of Table matching Condition.
type Delete struct {
	target
}

func NewDelete(database, table, condition string) Delete {
	return Delete{target: newTarget(database, table, condition)}
}

func (Delete) isDirective() {}

func (d Delete) SQL() string { return d.Render(dialect.MSSQL) }

func (d Delete) Render(dl dialect.Dialect) string {
	return dl.DeleteStatement(d.table, d.condition)
}

func (d Delete) String() string {
	return fmt.Sprintf("delete %s.%s where %s", d.database, d.table, d.condition)
}

// NullOut clears Column on every row of Table matching Condition.
type NullOut struct {
	target
	column string
}

func NewNullOut(database, table, column, condition string) NullOut {
	return NullOut{target: newTarget(database, table, condition), column: column}
}

func (NullOut) isDirective() {}

func (n NullOut) Column() string { return n.column }

func (n NullOut) SQL() string { return n.Render(dialect.MSSQL) }

func (n NullOut) Render(dl dialect.Dialect) string {
	return dl.NullOutStatement(n.table, n.column, n.condition)
}

func (n NullOut) String() string {
	return fmt.Sprintf("null out %s.%s.%s where %s", n.database, n.table, n.column, n.condition)
}
