package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/admin-console/internal/model"
)

// AccessLevelRepo stores the access level tree in `access_levels`.
type AccessLevelRepo struct{ DB *sql.DB }

func NewAccessLevelRepo(db *sql.DB) *AccessLevelRepo { return &AccessLevelRepo{DB: db} }

const accessLevelColumns = "id,name,description,parent_id,created_at,updated_at"

func scanAccessLevel(s scanner) (model.AccessLevel, error) {
	var (
		a      model.AccessLevel
		parent sql.NullString
	)
	err := s.Scan(&a.ID, &a.Name, &a.Description, &parent, &a.CreatedAt, &a.UpdatedAt)
	a.ParentID = ptrOf(parent)
	return a, err
}

func (r *AccessLevelRepo) List(ctx context.Context) ([]model.AccessLevel, error) {
	return queryAll(ctx, r.DB, scanAccessLevel, "SELECT "+accessLevelColumns+" FROM access_levels ORDER BY id")
}

func (r *AccessLevelRepo) Get(ctx context.Context, id string) (model.AccessLevel, error) {
	return queryOne(ctx, r.DB, scanAccessLevel, "SELECT "+accessLevelColumns+" FROM access_levels WHERE id=? LIMIT 1", id)
}

func (r *AccessLevelRepo) Create(ctx context.Context, a *model.AccessLevel) error {
	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO access_levels ("+accessLevelColumns+") VALUES (?,?,?,?,?,?)",
		a.ID, a.Name, a.Description, nullPtr(a.ParentID), a.CreatedAt, a.UpdatedAt)
	return translate(err)
}

func (r *AccessLevelRepo) Update(ctx context.Context, a *model.AccessLevel) error {
	touch(&a.UpdatedAt)
	return execOne(ctx, r.DB,
		"UPDATE access_levels SET name=?,description=?,parent_id=?,updated_at=? WHERE id=?",
		a.Name, a.Description, nullPtr(a.ParentID), a.UpdatedAt, a.ID)
}

// Delete fails with ErrConflict while any user, group, menu, screen,
// permission or child level references the level.
func (r *AccessLevelRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM access_levels WHERE id=?", id)
}
