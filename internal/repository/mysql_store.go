package repository

import "database/sql"

// NewMySQLStore wires every MySQL repository over one pool.  The caller
// supplies the Denylist since it lives outside the database.
func NewMySQLStore(db *sql.DB, deny Denylist) *Store {
	return &Store{
		Users:        NewUserRepo(db),
		Groups:       NewGroupRepo(db),
		AccessLevels: NewAccessLevelRepo(db),
		Menus:        NewMenuRepo(db),
		Screens:      NewScreenRepo(db),
		Permissions:  NewPermissionRepo(db),
		Queries:      NewQueryRepo(db),
		Reports:      NewReportRepo(db),
		Tokens:       NewTokenRepo(db),
		Denylist:     deny,
	}
}
