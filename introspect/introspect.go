package introspect

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// ConstraintDetails are the catalog facts needed to neutralize the rows
// blocking a delete.
type ConstraintDetails struct {
	// ReferencedColumn is the parent-side column the foreign key points at.
	ReferencedColumn string
	// BlockingColumnNullable reports whether the referencing column accepts
	// null, in which case the reference can be cleared instead of deleted.
	BlockingColumnNullable bool
}

var (
	ErrConstraintNotFound  = errors.New("foreign key constraint not found")
	ErrAmbiguousConstraint = errors.New("foreign key constraint spans more than one column")
)

// SQL Server names the referencing side of a foreign key its "parent", so
// pc.is_nullable is the nullability of the blocking column.
const mssqlConstraintQuery = `
	select rc.name ReferencedColumnName, pc.is_nullable BlockingColumnIsNullable
	from sys.foreign_key_columns fk
	join sys.columns rc on fk.referenced_column_id = rc.column_id and fk.referenced_object_id = rc.object_id
	join sys.columns pc on fk.parent_column_id = pc.column_id and fk.parent_object_id = pc.object_id
	where fk.constraint_object_id = object_id(@constraintName)
	`

const postgresConstraintQuery = `
	SELECT ra.attname AS referenced_column, NOT fa.attnotnull AS is_nullable
	FROM pg_constraint c
	CROSS JOIN LATERAL unnest(c.conkey, c.confkey) AS k(child_attnum, parent_attnum)
	JOIN pg_attribute fa ON fa.attrelid = c.conrelid AND fa.attnum = k.child_attnum
	JOIN pg_attribute ra ON ra.attrelid = c.confrelid AND ra.attnum = k.parent_attnum
	WHERE c.contype = 'f' AND c.conname = $1 AND c.conrelid = to_regclass($2)
	`

const postgresReferencingColumnQuery = `
	SELECT fa.attname
	FROM pg_constraint c
	CROSS JOIN LATERAL unnest(c.conkey) AS k(child_attnum)
	JOIN pg_attribute fa ON fa.attrelid = c.conrelid AND fa.attnum = k.child_attnum
	WHERE c.contype = 'f' AND c.conname = $1 AND c.conrelid = to_regclass($2)
	`

// SQLQueryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type SQLQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PgQueryer is satisfied by *pgx.Conn and pgxpool.
type PgQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LookupMSSQL reads the referenced column and blocking column nullability of
// a single-column foreign key from the SQL Server catalog.
func LookupMSSQL(ctx context.Context, q SQLQueryer, constraint string) (ConstraintDetails, error) {
	rows, err := q.QueryContext(ctx, mssqlConstraintQuery, sql.Named("constraintName", constraint))
	if err != nil {
		return ConstraintDetails{}, errors.Wrapf(err, "querying constraint %s", constraint)
	}
	defer rows.Close()

	var found []ConstraintDetails
	for rows.Next() {
		var d ConstraintDetails
		if err := rows.Scan(&d.ReferencedColumn, &d.BlockingColumnNullable); err != nil {
			return ConstraintDetails{}, errors.Wrapf(err, "scanning constraint %s", constraint)
		}
		found = append(found, d)
	}
	if err := rows.Err(); err != nil {
		return ConstraintDetails{}, errors.Wrapf(err, "iterating constraint %s", constraint)
	}

	return exactlyOne(found, constraint)
}

// LookupPostgres is LookupMSSQL for pg_catalog. Constraint names are only
// unique per table in PostgreSQL, so the referencing table is required. Its
// parts are quoted, so case is kept.
func LookupPostgres(ctx context.Context, q PgQueryer, constraint string, table pgx.Identifier) (ConstraintDetails, error) {
	rows, err := q.Query(ctx, postgresConstraintQuery, constraint, table.Sanitize())
	if err != nil {
		return ConstraintDetails{}, errors.Wrapf(err, "querying constraint %s", constraint)
	}
	defer rows.Close()

	var found []ConstraintDetails
	for rows.Next() {
		var d ConstraintDetails
		if err := rows.Scan(&d.ReferencedColumn, &d.BlockingColumnNullable); err != nil {
			return ConstraintDetails{}, errors.Wrapf(err, "scanning constraint %s", constraint)
		}
		found = append(found, d)
	}
	if err := rows.Err(); err != nil {
		return ConstraintDetails{}, errors.Wrapf(err, "iterating constraint %s", constraint)
	}

	return exactlyOne(found, constraint)
}

// ReferencingColumnPostgres returns the child column of a foreign key.
// PostgreSQL does not name it in the violation error.
func ReferencingColumnPostgres(ctx context.Context, q PgQueryer, constraint string, table pgx.Identifier) (string, error) {
	rows, err := q.Query(ctx, postgresReferencingColumnQuery, constraint, table.Sanitize())
	if err != nil {
		return "", errors.Wrapf(err, "querying columns of constraint %s", constraint)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return "", errors.Wrapf(err, "scanning column of constraint %s", constraint)
		}
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrapf(err, "iterating columns of constraint %s", constraint)
	}

	return exactlyOne(columns, constraint)
}

func exactlyOne[T any](found []T, constraint string) (T, error) {
	var zero T
	switch len(found) {
	case 0:
		return zero, errors.Wrapf(ErrConstraintNotFound, "constraint %s", constraint)
	case 1:
		return found[0], nil
	default:
		return zero, errors.Wrapf(ErrAmbiguousConstraint, "constraint %s matched %d columns", constraint, len(found))
	}
}
