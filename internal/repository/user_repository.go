package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/admin-console/internal/model"
)

const userColumns = "id,name,email,role,group_id,access_level_id,status,created_at,updated_at"

// UserRepo is the MySQL UserRepository over the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an email the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func scanUser(s scanner) (model.User, error) {
	var (
		u     model.User
		group sql.NullString
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &group, &u.AccessLevelID, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	u.GroupID = group.String
	return u, err
}

// List returns all users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	return queryAll(ctx, r.DB, scanUser, "SELECT "+userColumns+" FROM users ORDER BY name, id")
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, id string) (model.User, error) {
	return queryOne(ctx, r.DB, scanUser, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// Create inserts u with the given password hash.  A duplicate email yields
// ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User, passwordHash string) error {
	u.Email = NormalizeEmail(u.Email)
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id,name,email,password_hash,role,group_id,access_level_id,status,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, passwordHash, u.Role, nullString(u.GroupID), u.AccessLevelID, u.Status, u.CreatedAt, u.UpdatedAt)
	return translate(err)
}

// Update overwrites the profile columns of u.  The password is untouched.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	touch(&u.UpdatedAt)
	return execOne(ctx, r.DB,
		"UPDATE users SET name=?,email=?,role=?,group_id=?,access_level_id=?,status=?,updated_at=? WHERE id=?",
		u.Name, u.Email, u.Role, nullString(u.GroupID), u.AccessLevelID, u.Status, u.UpdatedAt, u.ID)
}

// SetPassword replaces the stored hash.
func (r *UserRepo) SetPassword(ctx context.Context, id, passwordHash string) error {
	return execOne(ctx, r.DB, "UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
}

// Delete removes a user; refresh tokens go with it (ON DELETE CASCADE).
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM users WHERE id=?", id)
}

// GetCredentials fetches a user by normalized email together with the
// password hash.
func (r *UserRepo) GetCredentials(ctx context.Context, email string) (model.User, string, error) {
	var hash string
	u, err := queryOne(ctx, r.DB, func(s scanner) (model.User, error) {
		var (
			u     model.User
			group sql.NullString
		)
		err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &group, &u.AccessLevelID, &u.Status, &u.CreatedAt, &u.UpdatedAt, &hash)
		u.GroupID = group.String
		return u, err
	}, "SELECT "+userColumns+",password_hash FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return u, hash, err
}
