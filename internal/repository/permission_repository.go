package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/iliyamo/admin-console/internal/model"
)

// PermissionRepo stores permissions in `permissions`; actions live in a
// JSON column.
type PermissionRepo struct{ DB *sql.DB }

func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{DB: db} }

const permissionColumns = "id,access_level_id,resource_type,resource_id,actions"

func scanPermission(s scanner) (model.Permission, error) {
	var (
		p   model.Permission
		raw []byte
	)
	if err := s.Scan(&p.ID, &p.AccessLevelID, &p.ResourceType, &p.ResourceID, &raw); err != nil {
		return p, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Actions); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (r *PermissionRepo) List(ctx context.Context) ([]model.Permission, error) {
	return queryAll(ctx, r.DB, scanPermission, "SELECT "+permissionColumns+" FROM permissions ORDER BY access_level_id, resource_type, resource_id")
}

func (r *PermissionRepo) ListByAccessLevel(ctx context.Context, accessLevelID string) ([]model.Permission, error) {
	return queryAll(ctx, r.DB, scanPermission,
		"SELECT "+permissionColumns+" FROM permissions WHERE access_level_id=? ORDER BY resource_type, resource_id", accessLevelID)
}

func (r *PermissionRepo) Get(ctx context.Context, id string) (model.Permission, error) {
	return queryOne(ctx, r.DB, scanPermission, "SELECT "+permissionColumns+" FROM permissions WHERE id=? LIMIT 1", id)
}

func (r *PermissionRepo) Create(ctx context.Context, p *model.Permission) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	actions, err := json.Marshal(p.Actions)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO permissions ("+permissionColumns+") VALUES (?,?,?,?,?)",
		p.ID, p.AccessLevelID, p.ResourceType, p.ResourceID, actions)
	return translate(err)
}

func (r *PermissionRepo) Update(ctx context.Context, p *model.Permission) error {
	actions, err := json.Marshal(p.Actions)
	if err != nil {
		return err
	}
	return execOne(ctx, r.DB,
		"UPDATE permissions SET access_level_id=?,resource_type=?,resource_id=?,actions=? WHERE id=?",
		p.AccessLevelID, p.ResourceType, p.ResourceID, actions, p.ID)
}

func (r *PermissionRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM permissions WHERE id=?", id)
}
