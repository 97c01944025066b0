package directive

import "fmt"

// Outcome is the classified result of attempting a Directive: Success or
// Conflict. Any other failure is returned as an error instead.
type Outcome interface {
	isOutcome()
}

// Success means the statement ran without a reference conflict.
type Success struct {
	Statement string
}

// Conflict describes the foreign key that rejected the statement, as reported
// by the engine.
type Conflict struct {
	Constraint string
	Database   string
	Table      string
	Column     string
}

func (Success) isOutcome()  {}
func (Conflict) isOutcome() {}

func (c Conflict) String() string {
	return fmt.Sprintf("%s (%s.%s.%s)", c.Constraint, c.Database, c.Table, c.Column)
}
