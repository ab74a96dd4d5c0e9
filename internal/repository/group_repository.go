package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/admin-console/internal/model"
)

// GroupRepo stores groups in `user_groups` (GROUPS is reserved in MySQL 8).
type GroupRepo struct{ DB *sql.DB }

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{DB: db} }

const groupColumns = "id,name,description,access_level_id,created_at,updated_at"

func scanGroup(s scanner) (model.Group, error) {
	var g model.Group
	err := s.Scan(&g.ID, &g.Name, &g.Description, &g.AccessLevelID, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *GroupRepo) List(ctx context.Context) ([]model.Group, error) {
	return queryAll(ctx, r.DB, scanGroup, "SELECT "+groupColumns+" FROM user_groups ORDER BY name, id")
}

func (r *GroupRepo) Get(ctx context.Context, id string) (model.Group, error) {
	return queryOne(ctx, r.DB, scanGroup, "SELECT "+groupColumns+" FROM user_groups WHERE id=? LIMIT 1", id)
}

func (r *GroupRepo) Create(ctx context.Context, g *model.Group) error {
	stamp(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_groups ("+groupColumns+") VALUES (?,?,?,?,?,?)",
		g.ID, g.Name, g.Description, g.AccessLevelID, g.CreatedAt, g.UpdatedAt)
	return translate(err)
}

func (r *GroupRepo) Update(ctx context.Context, g *model.Group) error {
	touch(&g.UpdatedAt)
	return execOne(ctx, r.DB,
		"UPDATE user_groups SET name=?,description=?,access_level_id=?,updated_at=? WHERE id=?",
		g.Name, g.Description, g.AccessLevelID, g.UpdatedAt, g.ID)
}

// Delete fails with ErrConflict while users still reference the group.
func (r *GroupRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM user_groups WHERE id=?", id)
}
