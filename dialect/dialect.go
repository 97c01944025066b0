package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// Dialect names the relational engine statements are rendered for.
type Dialect string

const (
	MSSQL    Dialect = "mssql"
	Postgres Dialect = "postgres"
)

// A leading schema part, bare or delimited. Tables are always addressed
// unqualified.
var schemaPrefix = regexp.MustCompile(`^(?:\[[^\]]+\]|"[^"]+"|[^.\["]+)\.`)

// Parse accepts the dialect names understood on the command line and in config.
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mssql", "sqlserver":
		return MSSQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return "", errors.Newf("unsupported dialect %q (expected mssql or postgres)", name)
}

func (d Dialect) String() string { return string(d) }

func (d *Dialect) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Quote wraps an identifier in the dialect's delimiters.
func (d Dialect) Quote(ident string) string {
	if d == Postgres {
		return `"` + ident + `"`
	}
	return "[" + ident + "]"
}

// StripSchema removes a leading schema qualifier from a table name.
func StripSchema(table string) string {
	return schemaPrefix.ReplaceAllString(table, "")
}

func (d Dialect) DeleteStatement(table, condition string) string {
	if d == Postgres {
		return fmt.Sprintf("DELETE FROM %s WHERE %s", d.Quote(table), condition)
	}
	return fmt.Sprintf("DELETE %s WHERE %s", d.Quote(table), condition)
}

func (d Dialect) NullOutStatement(table, column, condition string) string {
	if d == Postgres {
		return fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s", d.Quote(table), d.Quote(column), condition)
	}
	return fmt.Sprintf("UPDATE %s SET %s = null WHERE %s", d.Quote(table), d.Quote(column), condition)
}

// BlockerCondition selects the referencing rows whose key appears in the rows
// matched by condition on table.
func (d Dialect) BlockerCondition(column, referencedColumn, table, condition string) string {
	if d == Postgres {
		column = d.Quote(column)
	}
	return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s)", column, d.Quote(referencedColumn), d.Quote(table), condition)
}
