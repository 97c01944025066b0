package database

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/cockroachdb/errors"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/ridoystarlord/sqldelete/conflict"
	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/directive"
	"github.com/ridoystarlord/sqldelete/introspect"
)

// OpenSQLFunc opens a database/sql handle for a DSN.
type OpenSQLFunc func(dsn string) (*sql.DB, error)

func openSQLServer(dsn string) (*sql.DB, error) {
	return sql.Open("sqlserver", dsn)
}

// MSSQL runs directives against SQL Server, one connection per call.
type MSSQL struct {
	cfg    Config
	open   OpenSQLFunc
	logger *slog.Logger
}

func NewMSSQL(cfg Config, logger *slog.Logger) *MSSQL {
	return &MSSQL{cfg: cfg, open: openSQLServer, logger: logger}
}

// WithOpener replaces the function used to open connections.
func (m *MSSQL) WithOpener(open OpenSQLFunc) *MSSQL {
	m.open = open
	return m
}

func (m *MSSQL) Dialect() dialect.Dialect { return dialect.MSSQL }

// withConn hands fn a single connection to database and closes it on every
// path.
func (m *MSSQL) withConn(ctx context.Context, database string, fn func(*sql.Conn) error) error {
	dsn, err := m.cfg.DSN(database)
	if err != nil {
		return err
	}
	db, err := m.open(dsn)
	if err != nil {
		return errors.Wrapf(err, "opening database %s", database)
	}
	defer func() {
		if err := db.Close(); err != nil {
			m.logger.Warn("closing connection", slog.String("database", database), slog.Any("error", err))
		}
	}()
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return errors.Wrapf(err, "connecting to database %s", database)
	}
	defer conn.Close()

	return fn(conn)
}

// Attempt executes d without a statement timeout. A foreign key rejection is
// returned as a Conflict outcome; any other failure is returned unchanged.
func (m *MSSQL) Attempt(ctx context.Context, d directive.Directive) (directive.Outcome, error) {
	statement := d.SQL()
	var execErr error
	err := m.withConn(ctx, d.Database(), func(conn *sql.Conn) error {
		_, execErr = conn.ExecContext(ctx, statement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if execErr == nil {
		return directive.Success{Statement: statement}, nil
	}
	if c, ok := conflict.Parse(errorMessage(execErr)); ok {
		return c, nil
	}
	return nil, execErr
}

// Lookup reads the catalog details of the conflicting constraint from the
// database the conflict was reported in.
func (m *MSSQL) Lookup(ctx context.Context, c directive.Conflict) (introspect.ConstraintDetails, error) {
	var details introspect.ConstraintDetails
	err := m.withConn(ctx, c.Database, func(conn *sql.Conn) error {
		var err error
		details, err = introspect.LookupMSSQL(ctx, conn, c.Constraint)
		return err
	})
	return details, err
}

func (m *MSSQL) Ping(ctx context.Context, database string) error {
	return m.withConn(ctx, database, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// errorMessage prefers the server's message text over the driver's
// formatted error string.
func errorMessage(err error) string {
	var serverErr mssql.Error
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	return err.Error()
}
