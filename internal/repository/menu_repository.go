package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/model"
)

// MenuRepo stores navigation entries in `menus`.
type MenuRepo struct{ DB *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{DB: db} }

const menuColumns = "id,name,icon,route,external_url,parent_id,screen_id,requires_auth,access_level_id,sort_order,is_active,created_at,updated_at"

// scanMenu drops icons outside the known set so clients never receive an
// identifier they cannot render.
func scanMenu(s scanner) (model.Menu, error) {
	var (
		m                     model.Menu
		icon, route, external sql.NullString
		parent, screen, level sql.NullString
	)
	err := s.Scan(&m.ID, &m.Name, &icon, &route, &external, &parent, &screen,
		&m.RequiresAuth, &level, &m.Order, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	m.Icon = menutree.SanitizeIcon(icon.String)
	m.Route = route.String
	m.ExternalURL = external.String
	m.ParentID = ptrOf(parent)
	m.ScreenID = ptrOf(screen)
	m.AccessLevelID = ptrOf(level)
	return m, err
}

func (r *MenuRepo) List(ctx context.Context) ([]model.Menu, error) {
	return queryAll(ctx, r.DB, scanMenu, "SELECT "+menuColumns+" FROM menus ORDER BY sort_order, created_at, id")
}

func (r *MenuRepo) ListActive(ctx context.Context) ([]model.Menu, error) {
	return queryAll(ctx, r.DB, scanMenu, "SELECT "+menuColumns+" FROM menus WHERE is_active=1 ORDER BY sort_order, created_at, id")
}

func (r *MenuRepo) Get(ctx context.Context, id string) (model.Menu, error) {
	return queryOne(ctx, r.DB, scanMenu, "SELECT "+menuColumns+" FROM menus WHERE id=? LIMIT 1", id)
}

func (r *MenuRepo) Create(ctx context.Context, m *model.Menu) error {
	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO menus ("+menuColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)",
		m.ID, m.Name, nullString(m.Icon), nullString(m.Route), nullString(m.ExternalURL),
		nullPtr(m.ParentID), nullPtr(m.ScreenID), m.RequiresAuth, nullPtr(m.AccessLevelID),
		m.Order, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return translate(err)
}

func (r *MenuRepo) Update(ctx context.Context, m *model.Menu) error {
	touch(&m.UpdatedAt)
	return execOne(ctx, r.DB,
		"UPDATE menus SET name=?,icon=?,route=?,external_url=?,parent_id=?,screen_id=?,requires_auth=?,access_level_id=?,sort_order=?,is_active=?,updated_at=? WHERE id=?",
		m.Name, nullString(m.Icon), nullString(m.Route), nullString(m.ExternalURL),
		nullPtr(m.ParentID), nullPtr(m.ScreenID), m.RequiresAuth, nullPtr(m.AccessLevelID),
		m.Order, m.IsActive, m.UpdatedAt, m.ID)
}

// Delete fails with ErrConflict while the menu still has children.
func (r *MenuRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM menus WHERE id=?", id)
}
