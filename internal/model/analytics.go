package model

import "time"

// AnalyticsQuery is a saved SQL statement that users can run from the
// analytics screens.
type AnalyticsQuery struct {
	ID          string    `json:"id"`          // analytics_queries.id
	Name        string    `json:"name"`        // analytics_queries.name
	Description string    `json:"description"` // analytics_queries.description
	SQLQuery    string    `json:"sqlQuery"`    // analytics_queries.sql_query
	CreatedAt   time.Time `json:"createdAt"`   // analytics_queries.created_at
	UpdatedAt   time.Time `json:"updatedAt"`   // analytics_queries.updated_at
}

// PowerBIReport registers an external BI report for embedding.
type PowerBIReport struct {
	ID          string    `json:"id"`          // powerbi_reports.id
	Name        string    `json:"name"`        // powerbi_reports.name
	Description string    `json:"description"` // powerbi_reports.description
	ReportID    string    `json:"reportId"`    // powerbi_reports.report_id
	WorkspaceID string    `json:"workspaceId"` // powerbi_reports.workspace_id
	EmbedURL    string    `json:"embedUrl"`    // powerbi_reports.embed_url
	CreatedAt   time.Time `json:"createdAt"`   // powerbi_reports.created_at
	UpdatedAt   time.Time `json:"updatedAt"`   // powerbi_reports.updated_at
}
