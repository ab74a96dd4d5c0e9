// Package repository defines the console's data access contracts and their
// MySQL implementation.  The sentinel errors below let handlers tell failure
// scenarios apart without knowing which backend is in use.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller may not act on the row, such as
// an admin deleting their own account.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would duplicate a unique value or a
// delete would orphan dependent rows (a group that still has users, an
// access level still referenced by menus).  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers mapped to ErrConflict.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// translate maps driver errors onto the sentinel errors above.
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry, mysqlRowIsReferenced, mysqlNoReferencedRow:
			return ErrConflict
		}
	}
	return err
}
