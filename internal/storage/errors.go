package storage

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ledger/internal/core"
)

// updated_at precedes date because it contains it.
var constrainedColumns = []string{"updated_at", "amount_cents", "direction", "date", "category", "note", "account_id", "name", "archived"}

// mapError turns constraint violations into validation errors and every
// other driver failure into a storage outage.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := serr.Error()
		switch {
		case serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE, serr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &core.ValidationError{Field: constraintField(msg), Reason: "value already exists"}
		case serr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, strings.Contains(msg, "FOREIGN KEY"):
			return &core.ValidationError{Field: "account_id", Reason: "account reference violated"}
		default:
			return &core.ValidationError{Field: constraintField(msg), Reason: "rejected by storage constraint"}
		}
	}
	return core.Unavailable(op, err)
}

func constraintField(msg string) string {
	for _, col := range constrainedColumns {
		if strings.Contains(msg, col) {
			return col
		}
	}
	return ""
}
