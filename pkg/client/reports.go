package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/admin-console/internal/analytics"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/powerbi"
)

// PageOptions selects one page of an analytics result.  Zero values use the
// server defaults.
type PageOptions struct {
	Filter string
	Page   int
	Size   int
}

func (o PageOptions) values() url.Values {
	q := url.Values{}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		q.Set("size", strconv.Itoa(o.Size))
	}
	return q
}

func (c *Client) ListQueries(ctx context.Context) ([]model.AnalyticsQuery, error) {
	return List[model.AnalyticsQuery](ctx, c, Queries)
}

// RunQuery executes a saved query.
func (c *Client) RunQuery(ctx context.Context, id string, opts PageOptions) (analytics.Page, error) {
	var out analytics.Page
	err := c.do(ctx, http.MethodPost, Queries+"/"+url.PathEscape(id)+"/run", opts.values(), nil, &out)
	return out, err
}

// Execute runs an ad-hoc statement.  A statement the database refused comes
// back as a *TransportError with status 422.
func (c *Client) Execute(ctx context.Context, sql string, opts PageOptions) (analytics.Page, error) {
	var out analytics.Page
	err := c.do(ctx, http.MethodPost, "/v1/analytics/execute", opts.values(), map[string]string{"sql": sql}, &out)
	return out, err
}

func (c *Client) ListReports(ctx context.Context) ([]model.PowerBIReport, error) {
	return List[model.PowerBIReport](ctx, c, Reports)
}

// Embed fetches the embed token and URL of a registered report.
func (c *Client) Embed(ctx context.Context, id string) (powerbi.EmbedInfo, error) {
	var out powerbi.EmbedInfo
	err := c.get(ctx, Reports+"/"+url.PathEscape(id)+"/embed", nil, &out)
	return out, err
}
