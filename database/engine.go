package database

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/directive"
	"github.com/ridoystarlord/sqldelete/introspect"
)

// Engine executes directives and reads constraint metadata on one server.
type Engine interface {
	Dialect() dialect.Dialect
	Attempt(ctx context.Context, d directive.Directive) (directive.Outcome, error)
	Lookup(ctx context.Context, c directive.Conflict) (introspect.ConstraintDetails, error)
	Ping(ctx context.Context, database string) error
}

var (
	_ Engine = (*MSSQL)(nil)
	_ Engine = (*Postgres)(nil)
)

// NewEngine validates cfg and returns the engine for its dialect.
func NewEngine(cfg Config, logger *slog.Logger) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Dialect {
	case dialect.MSSQL, "":
		return NewMSSQL(cfg, logger), nil
	case dialect.Postgres:
		return NewPostgres(cfg, logger), nil
	}
	return nil, errors.Newf("unsupported dialect %q", cfg.Dialect)
}
