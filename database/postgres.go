package database

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/directive"
	"github.com/ridoystarlord/sqldelete/introspect"
)

// PgConn is the subset of *pgx.Conn used per statement.
type PgConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type ConnectFunc func(ctx context.Context, dsn string) (PgConn, error)

func connectPgx(ctx context.Context, dsn string) (PgConn, error) {
	return pgx.Connect(ctx, dsn)
}

// Postgres runs directives against PostgreSQL, one connection per call.
type Postgres struct {
	cfg     Config
	connect ConnectFunc
	logger  *slog.Logger
}

func NewPostgres(cfg Config, logger *slog.Logger) *Postgres {
	return &Postgres{cfg: cfg, connect: connectPgx, logger: logger}
}

// WithConnector replaces the function used to open connections.
func (p *Postgres) WithConnector(connect ConnectFunc) *Postgres {
	p.connect = connect
	return p
}

func (p *Postgres) Dialect() dialect.Dialect { return dialect.Postgres }

func (p *Postgres) withConn(ctx context.Context, database string, fn func(PgConn) error) error {
	dsn, err := p.cfg.DSN(database)
	if err != nil {
		return err
	}
	conn, err := p.connect(ctx, dsn)
	if err != nil {
		return errors.Wrapf(err, "connecting to database %s", database)
	}
	defer func() {
		// ctx may already be cancelled; closing must still happen.
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			p.logger.Warn("closing connection", slog.String("database", database), slog.Any("error", err))
		}
	}()

	return fn(conn)
}

// Attempt executes d. A foreign key violation is returned as a Conflict
// outcome; any other failure is returned unchanged.
func (p *Postgres) Attempt(ctx context.Context, d directive.Directive) (directive.Outcome, error) {
	statement := d.Render(dialect.Postgres)
	var outcome directive.Outcome
	var execErr error
	err := p.withConn(ctx, d.Database(), func(conn PgConn) error {
		_, execErr = conn.Exec(ctx, statement)
		if execErr == nil {
			outcome = directive.Success{Statement: statement}
			return nil
		}

		var pgErr *pgconn.PgError
		if !errors.As(execErr, &pgErr) || pgErr.Code != pgerrcode.ForeignKeyViolation {
			return nil
		}
		// PostgreSQL reports the referencing table but not its column.
		column, err := introspect.ReferencingColumnPostgres(ctx, conn, pgErr.ConstraintName, errorTable(pgErr))
		if err != nil {
			return err
		}
		outcome = directive.Conflict{
			Constraint: pgErr.ConstraintName,
			Database:   d.Database(),
			Table:      qualifiedTable(pgErr),
			Column:     column,
		}
		execErr = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if execErr != nil {
		return nil, execErr
	}
	return outcome, nil
}

func (p *Postgres) Lookup(ctx context.Context, c directive.Conflict) (introspect.ConstraintDetails, error) {
	var details introspect.ConstraintDetails
	err := p.withConn(ctx, c.Database, func(conn PgConn) error {
		var err error
		details, err = introspect.LookupPostgres(ctx, conn, c.Constraint, tableIdentifier(c.Table))
		return err
	})
	return details, err
}

func (p *Postgres) Ping(ctx context.Context, database string) error {
	return p.withConn(ctx, database, func(conn PgConn) error {
		return conn.Ping(ctx)
	})
}

func errorTable(pgErr *pgconn.PgError) pgx.Identifier {
	if pgErr.SchemaName == "" {
		return pgx.Identifier{pgErr.TableName}
	}
	return pgx.Identifier{pgErr.SchemaName, pgErr.TableName}
}

// tableIdentifier splits a conflict table back into schema and name.
func tableIdentifier(table string) pgx.Identifier {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}

func qualifiedTable(pgErr *pgconn.PgError) string {
	if pgErr.SchemaName == "" {
		return pgErr.TableName
	}
	return pgErr.SchemaName + "." + pgErr.TableName
}
