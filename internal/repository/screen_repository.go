package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/admin-console/internal/model"
)

// ScreenRepo stores screens in `screens`.
type ScreenRepo struct{ DB *sql.DB }

func NewScreenRepo(db *sql.DB) *ScreenRepo { return &ScreenRepo{DB: db} }

const screenColumns = "id,name,description,content,content_type,access_level_id,created_at,updated_at"

func scanScreen(s scanner) (model.Screen, error) {
	var (
		sc    model.Screen
		level sql.NullString
	)
	err := s.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.Content, &sc.ContentType, &level, &sc.CreatedAt, &sc.UpdatedAt)
	sc.AccessLevelID = ptrOf(level)
	return sc, err
}

func (r *ScreenRepo) List(ctx context.Context) ([]model.Screen, error) {
	return queryAll(ctx, r.DB, scanScreen, "SELECT "+screenColumns+" FROM screens ORDER BY name, id")
}

func (r *ScreenRepo) Get(ctx context.Context, id string) (model.Screen, error) {
	return queryOne(ctx, r.DB, scanScreen, "SELECT "+screenColumns+" FROM screens WHERE id=? LIMIT 1", id)
}

func (r *ScreenRepo) Create(ctx context.Context, sc *model.Screen) error {
	stamp(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO screens ("+screenColumns+") VALUES (?,?,?,?,?,?,?,?)",
		sc.ID, sc.Name, sc.Description, sc.Content, sc.ContentType, nullPtr(sc.AccessLevelID), sc.CreatedAt, sc.UpdatedAt)
	return translate(err)
}

func (r *ScreenRepo) Update(ctx context.Context, sc *model.Screen) error {
	touch(&sc.UpdatedAt)
	return execOne(ctx, r.DB,
		"UPDATE screens SET name=?,description=?,content=?,content_type=?,access_level_id=?,updated_at=? WHERE id=?",
		sc.Name, sc.Description, sc.Content, sc.ContentType, nullPtr(sc.AccessLevelID), sc.UpdatedAt, sc.ID)
}

// Delete fails with ErrConflict while a menu still opens the screen.
func (r *ScreenRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM screens WHERE id=?", id)
}
