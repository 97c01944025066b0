package conflict

import (
	"fmt"
	"regexp"

	"github.com/ridoystarlord/sqldelete/directive"
)

// referencePattern is the SQL Server wording for a delete rejected by a
// foreign key (error 547). It is matched as-is; the engine's message is the
// contract.
var referencePattern = regexp.MustCompile(`The DELETE statement conflicted with the (?:SAME TABLE )?REFERENCE constraint "(?P<constraint>.+)". The conflict occurred in database "(?P<database>.+)", table "(?P<table>.+)", column '(?P<column>.+)'.`)

// Parse extracts the blocking constraint from an engine error message. It
// reports false when the message is not a reference conflict; the caller must
// then surface the original error.
func Parse(message string) (directive.Conflict, bool) {
	m := referencePattern.FindStringSubmatch(message)
	if m == nil {
		return directive.Conflict{}, false
	}
	return directive.Conflict{
		Constraint: m[referencePattern.SubexpIndex("constraint")],
		Database:   m[referencePattern.SubexpIndex("database")],
		Table:      m[referencePattern.SubexpIndex("table")],
		Column:     m[referencePattern.SubexpIndex("column")],
	}, true
}

// Message renders c the way SQL Server reports it.
func Message(c directive.Conflict, sameTable bool) string {
	kind := "REFERENCE"
	if sameTable {
		kind = "SAME TABLE REFERENCE"
	}
	return fmt.Sprintf(
		`The DELETE statement conflicted with the %s constraint "%s". The conflict occurred in database "%s", table "%s", column '%s'.`,
		kind, c.Constraint, c.Database, c.Table, c.Column,
	)
}
