package runner

import (
	"github.com/ridoystarlord/sqldelete/dialect"
	"github.com/ridoystarlord/sqldelete/directive"
	"github.com/ridoystarlord/sqldelete/introspect"
)

// DeriveBlocker builds the directive that releases the rows referencing the
// targets of original. A nullable reference is cleared, otherwise the
// referencing rows are deleted.
func DeriveBlocker(dl dialect.Dialect, original directive.Directive, c directive.Conflict, details introspect.ConstraintDetails) directive.Directive {
	condition := dl.BlockerCondition(c.Column, details.ReferencedColumn, original.Table(), original.Condition())
	if details.BlockingColumnNullable {
		return directive.NewNullOut(c.Database, c.Table, c.Column, condition)
	}
	return directive.NewDelete(c.Database, c.Table, condition)
}
