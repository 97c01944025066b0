package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for name, want := range map[string]Dialect{
		"":           MSSQL,
		"mssql":      MSSQL,
		"SQLServer":  MSSQL,
		"postgres":   Postgres,
		" PG ":       Postgres,
		"postgresql": Postgres,
	} {
		got, err := Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := Parse("oracle")
	require.Error(t, err)
}

func TestStripSchema(t *testing.T) {
	for table, want := range map[string]string{
		"Employee":           "Employee",
		"dbo.Employee":       "Employee",
		"[dbo].Employee":     "Employee",
		"sales.InvoiceLine":  "InvoiceLine",
		"[sales].Invoice":    "Invoice",
		`"hr".leave_request`: "leave_request",
		`"my.table"`:         `"my.table"`,
	} {
		assert.Equal(t, want, StripSchema(table), table)
	}
}

func TestBlockerCondition(t *testing.T) {
	assert.Equal(t,
		"EmployeeId IN (SELECT [Id] FROM [Employee] WHERE Id=5)",
		MSSQL.BlockerCondition("EmployeeId", "Id", "Employee", "Id=5"),
	)
	assert.Equal(t,
		`"employee_id" IN (SELECT "id" FROM "employee" WHERE id = 5)`,
		Postgres.BlockerCondition("employee_id", "id", "employee", "id = 5"),
	)
}

func TestUnmarshalText(t *testing.T) {
	var d Dialect
	require.NoError(t, d.UnmarshalText([]byte("postgresql")))
	assert.Equal(t, Postgres, d)
	require.Error(t, d.UnmarshalText([]byte("db2")))
}
