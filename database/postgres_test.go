package database

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/directive"
	"github.com/ridoystarlord/sqldelete/introspect"
)

func newTestPostgres(t *testing.T) (*Postgres, pgxmock.PgxConnIface, *[]string) {
	t.Helper()
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)

	cfg := Config{Dialect: dialect.Postgres, Server: "localhost", User: "postgres", Password: "secret"}
	var dsns []string
	p := NewPostgres(cfg, slog.New(slog.DiscardHandler)).WithConnector(func(ctx context.Context, dsn string) (PgConn, error) {
		dsns = append(dsns, dsn)
		return mock, nil
	})
	return p, mock, &dsns
}

func TestPostgresAttemptSuccess(t *testing.T) {
	p, mock, dsns := newTestPostgres(t)
	statement := `DELETE FROM "employee" WHERE id = 5`
	mock.ExpectExec(regexp.QuoteMeta(statement)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectClose()

	outcome, err := p.Attempt(context.Background(), directive.NewDelete("payroll", "public.employee", "id = 5"))
	require.NoError(t, err)

	assert.Equal(t, directive.Success{Statement: statement}, outcome)
	require.Len(t, *dsns, 1)
	assert.Contains(t, (*dsns)[0], "localhost:5432/payroll")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAttemptForeignKeyViolation(t *testing.T) {
	p, mock, _ := newTestPostgres(t)
	statement := `DELETE FROM "employee" WHERE id = 5`
	mock.ExpectExec(regexp.QuoteMeta(statement)).WillReturnError(&pgconn.PgError{
		Code:           pgerrcode.ForeignKeyViolation,
		Message:        `update or delete on table "employee" violates foreign key constraint "leave_request_employee_id_fkey" on table "leave_request"`,
		SchemaName:     "public",
		TableName:      "leave_request",
		ConstraintName: "leave_request_employee_id_fkey",
	})
	mock.ExpectQuery("SELECT fa.attname").
		WithArgs("leave_request_employee_id_fkey", `"public"."leave_request"`).
		WillReturnRows(pgxmock.NewRows([]string{"attname"}).AddRow("employee_id"))
	mock.ExpectClose()

	outcome, err := p.Attempt(context.Background(), directive.NewDelete("payroll", "employee", "id = 5"))
	require.NoError(t, err)

	assert.Equal(t, directive.Conflict{
		Constraint: "leave_request_employee_id_fkey",
		Database:   "payroll",
		Table:      "public.leave_request",
		Column:     "employee_id",
	}, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAttemptPassesThroughOtherErrors(t *testing.T) {
	p, mock, _ := newTestPostgres(t)
	boom := &pgconn.PgError{Code: pgerrcode.UndefinedColumn, Message: `column "idd" does not exist`}
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "employee" WHERE idd = 5`)).WillReturnError(boom)
	mock.ExpectClose()

	outcome, err := p.Attempt(context.Background(), directive.NewDelete("payroll", "employee", "idd = 5"))

	assert.Nil(t, outcome)
	assert.Same(t, boom, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConnectFailure(t *testing.T) {
	boom := errors.New("connection refused")
	cfg := Config{Dialect: dialect.Postgres, Server: "localhost"}
	p := NewPostgres(cfg, slog.New(slog.DiscardHandler)).WithConnector(func(context.Context, string) (PgConn, error) {
		return nil, boom
	})

	_, err := p.Attempt(context.Background(), directive.NewDelete("payroll", "employee", "id = 5"))

	require.ErrorIs(t, err, boom)
}

func TestPostgresLookup(t *testing.T) {
	p, mock, _ := newTestPostgres(t)
	mock.ExpectQuery("FROM pg_constraint c").
		WithArgs("leave_request_approver_id_fkey", `"public"."leave_request"`).
		WillReturnRows(pgxmock.NewRows([]string{"referenced_column", "is_nullable"}).AddRow("id", true))
	mock.ExpectClose()

	details, err := p.Lookup(context.Background(), directive.Conflict{
		Constraint: "leave_request_approver_id_fkey",
		Database:   "payroll",
		Table:      "public.leave_request",
		Column:     "approver_id",
	})
	require.NoError(t, err)

	assert.Equal(t, introspect.ConstraintDetails{ReferencedColumn: "id", BlockingColumnNullable: true}, details)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConflictKeepsTableCase(t *testing.T) {
	p, mock, _ := newTestPostgres(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "Employee" WHERE "Id" = 5`)).WillReturnError(&pgconn.PgError{
		Code:           pgerrcode.ForeignKeyViolation,
		SchemaName:     "hr",
		TableName:      "LeaveRequest",
		ConstraintName: "FK_LeaveRequest_Employee",
	})
	mock.ExpectQuery("SELECT fa.attname").
		WithArgs("FK_LeaveRequest_Employee", `"hr"."LeaveRequest"`).
		WillReturnRows(pgxmock.NewRows([]string{"attname"}).AddRow("EmployeeId"))
	mock.ExpectClose()

	outcome, err := p.Attempt(context.Background(), directive.NewDelete("payroll", "hr.Employee", `"Id" = 5`))
	require.NoError(t, err)
	c, ok := outcome.(directive.Conflict)
	require.True(t, ok, "expected a conflict, got %T", outcome)
	assert.Equal(t, "hr.LeaveRequest", c.Table)
	require.NoError(t, mock.ExpectationsWereMet())

	p, mock, _ = newTestPostgres(t)
	mock.ExpectQuery("FROM pg_constraint c").
		WithArgs("FK_LeaveRequest_Employee", `"hr"."LeaveRequest"`).
		WillReturnRows(pgxmock.NewRows([]string{"referenced_column", "is_nullable"}).AddRow("Id", false))
	mock.ExpectClose()

	details, err := p.Lookup(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, introspect.ConstraintDetails{ReferencedColumn: "Id"}, details)
	require.NoError(t, mock.ExpectationsWereMet())
}
