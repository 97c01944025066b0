package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/directive"
	"github.com/ridoystarlord/sqldelete/introspect"
)

// ErrMaxDepthExceeded is returned when blockers nest deeper than the
// configured limit.
var ErrMaxDepthExceeded = errors.New("blocker chain exceeds maximum depth")

// Executor attempts a single directive. Reference conflicts are reported as a
// directive.Conflict outcome; any other failure is returned as an error.
type Executor interface {
	Attempt(ctx context.Context, d directive.Directive) (directive.Outcome, error)
}

// ConstraintLookup resolves the catalog details of a conflicting constraint.
type ConstraintLookup interface {
	Lookup(ctx context.Context, c directive.Conflict) (introspect.ConstraintDetails, error)
}

// Summary counts what a run did.
type Summary struct {
	Statements int
	Conflicts  int
	MaxDepth   int
}

type Runner struct {
	executor Executor
	lookup   ConstraintLookup
	dialect  dialect.Dialect
	out      io.Writer
	logger   *slog.Logger
	maxDepth int
}

type Option func(*Runner)

// WithDialect sets the dialect used to build blocker conditions.
func WithDialect(d dialect.Dialect) Option {
	return func(r *Runner) { r.dialect = d }
}

// WithOutput sets where executed statements are echoed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMaxDepth bounds blocker nesting; 0 means unbounded.
func WithMaxDepth(n int) Option {
	return func(r *Runner) { r.maxDepth = n }
}

func New(executor Executor, lookup ConstraintLookup, opts ...Option) *Runner {
	r := &Runner{
		executor: executor,
		lookup:   lookup,
		dialect:  dialect.MSSQL,
		out:      io.Discard,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run attempts d, clearing every blocking reference it runs into, until d
// succeeds. Statements are strictly sequential.
func (r *Runner) Run(ctx context.Context, d directive.Directive) (Summary, error) {
	var summary Summary
	if err := r.resolve(ctx, d, 0, &summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) resolve(ctx context.Context, d directive.Directive, depth int, summary *Summary) error {
	if r.maxDepth > 0 && depth > r.maxDepth {
		return errors.Wrapf(ErrMaxDepthExceeded, "%s at depth %d", d, depth)
	}
	if depth > summary.MaxDepth {
		summary.MaxDepth = depth
	}
	logger := r.logger.With(slog.String("directive", d.String()), slog.Int("depth", depth))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.DebugContext(ctx, "attempting")
		outcome, err := r.executor.Attempt(ctx, d)
		if err != nil {
			return err
		}

		switch o := outcome.(type) {
		case directive.Success:
			summary.Statements++
			if _, err := fmt.Fprintln(r.out, o.Statement); err != nil {
				return errors.Wrap(err, "echoing statement")
			}
			logger.DebugContext(ctx, "done")
			return nil

		case directive.Conflict:
			summary.Conflicts++
			logger.InfoContext(ctx, "blocked by reference",
				slog.String("constraint", o.Constraint),
				slog.String("table", o.Table),
				slog.String("column", o.Column),
			)

			details, err := r.lookup.Lookup(ctx, o)
			if err != nil {
				return errors.Wrapf(err, "looking up constraint %s", o.Constraint)
			}

			blocker := DeriveBlocker(r.dialect, d, o, details)
			logger.InfoContext(ctx, "resolving blocker", slog.String("blocker", blocker.String()))
			if err := r.resolve(ctx, blocker, depth+1, summary); err != nil {
				return err
			}

		default:
			return errors.AssertionFailedf("unexpected outcome %T", outcome)
		}
	}
}
