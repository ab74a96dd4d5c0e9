package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/admin-console/internal/model"
)

// QueryRepo stores saved analytics queries in `analytics_queries`.
type QueryRepo struct{ DB *sql.DB }

func NewQueryRepo(db *sql.DB) *QueryRepo { return &QueryRepo{DB: db} }

const queryColumns = "id,name,description,sql_query,created_at,updated_at"

func scanQuery(s scanner) (model.AnalyticsQuery, error) {
	var q model.AnalyticsQuery
	err := s.Scan(&q.ID, &q.Name, &q.Description, &q.SQLQuery, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (r *QueryRepo) List(ctx context.Context) ([]model.AnalyticsQuery, error) {
	return queryAll(ctx, r.DB, scanQuery, "SELECT "+queryColumns+" FROM analytics_queries ORDER BY created_at DESC, id")
}

func (r *QueryRepo) Get(ctx context.Context, id string) (model.AnalyticsQuery, error) {
	return queryOne(ctx, r.DB, scanQuery, "SELECT "+queryColumns+" FROM analytics_queries WHERE id=? LIMIT 1", id)
}

func (r *QueryRepo) Create(ctx context.Context, q *model.AnalyticsQuery) error {
	stamp(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO analytics_queries ("+queryColumns+") VALUES (?,?,?,?,?,?)",
		q.ID, q.Name, q.Description, q.SQLQuery, q.CreatedAt, q.UpdatedAt)
	return translate(err)
}

func (r *QueryRepo) Update(ctx context.Context, q *model.AnalyticsQuery) error {
	touch(&q.UpdatedAt)
	return execOne(ctx, r.DB,
		"UPDATE analytics_queries SET name=?,description=?,sql_query=?,updated_at=? WHERE id=?",
		q.Name, q.Description, q.SQLQuery, q.UpdatedAt, q.ID)
}

func (r *QueryRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM analytics_queries WHERE id=?", id)
}

// ReportRepo stores BI report registrations in `powerbi_reports`.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

const reportColumns = "id,name,description,report_id,workspace_id,embed_url,created_at,updated_at"

func scanReport(s scanner) (model.PowerBIReport, error) {
	var (
		p     model.PowerBIReport
		embed sql.NullString
	)
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.ReportID, &p.WorkspaceID, &embed, &p.CreatedAt, &p.UpdatedAt)
	p.EmbedURL = embed.String
	return p, err
}

func (r *ReportRepo) List(ctx context.Context) ([]model.PowerBIReport, error) {
	return queryAll(ctx, r.DB, scanReport, "SELECT "+reportColumns+" FROM powerbi_reports ORDER BY created_at DESC, id")
}

func (r *ReportRepo) Get(ctx context.Context, id string) (model.PowerBIReport, error) {
	return queryOne(ctx, r.DB, scanReport, "SELECT "+reportColumns+" FROM powerbi_reports WHERE id=? LIMIT 1", id)
}

func (r *ReportRepo) Create(ctx context.Context, p *model.PowerBIReport) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO powerbi_reports ("+reportColumns+") VALUES (?,?,?,?,?,?,?,?)",
		p.ID, p.Name, p.Description, p.ReportID, p.WorkspaceID, nullString(p.EmbedURL), p.CreatedAt, p.UpdatedAt)
	return translate(err)
}

func (r *ReportRepo) Update(ctx context.Context, p *model.PowerBIReport) error {
	touch(&p.UpdatedAt)
	return execOne(ctx, r.DB,
		"UPDATE powerbi_reports SET name=?,description=?,report_id=?,workspace_id=?,embed_url=?,updated_at=? WHERE id=?",
		p.Name, p.Description, p.ReportID, p.WorkspaceID, nullString(p.EmbedURL), p.UpdatedAt, p.ID)
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "DELETE FROM powerbi_reports WHERE id=?", id)
}
