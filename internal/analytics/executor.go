// Package analytics runs ad-hoc SQL for the analytics screens and shapes
// the result for display.  Statements are passed through as written;
// restricting what they may do is the job of the database account the
// executor connects with.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var executionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "console_analytics_executions_total",
		Help: "Analytics SQL executions by result",
	},
	[]string{"result"},
)

// QueryError reports a statement the database refused or that could not
// be run at all.  Message is safe to show to the user.
type QueryError struct {
	Message string
	Err     error
}

func (e *QueryError) Error() string { return e.Message }
func (e *QueryError) Unwrap() error { return e.Err }

// Result is a fully materialised result set.  Each row maps column name to
// value; byte slices are rendered as strings.
type Result struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"data"`
}

// Executor runs one SQL statement.
type Executor interface {
	Execute(ctx context.Context, query string) (Result, error)
}

// SQLExecutor runs statements on a database/sql pool.
type SQLExecutor struct {
	DB      *sql.DB
	MaxRows int           // 0 means unlimited
	Timeout time.Duration // 0 means the caller's deadline only
}

// NewSQLExecutor returns an executor capped at 10,000 rows and 30 seconds.
func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{DB: db, MaxRows: 10000, Timeout: 30 * time.Second}
}

// Execute runs query and collects every row.  Empty statements and driver
// failures come back as *QueryError.
func (e *SQLExecutor) Execute(ctx context.Context, query string) (res Result, err error) {
	defer func() {
		if err != nil {
			executionsTotal.WithLabelValues("error").Inc()
		} else {
			executionsTotal.WithLabelValues("success").Inc()
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, &QueryError{Message: "query is empty"}
	}
	if e.DB == nil {
		return Result{}, &QueryError{Message: "analytics database is not configured"}
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	rows, err := e.DB.QueryContext(ctx, query)
	if err != nil {
		return Result{}, wrap(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, wrap(err)
	}
	res = Result{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		if e.MaxRows > 0 && len(res.Rows) >= e.MaxRows {
			return Result{}, &QueryError{Message: fmt.Sprintf("result exceeds %d rows; add a LIMIT", e.MaxRows)}
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, wrap(err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, wrap(err)
	}
	return res, nil
}

func wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &QueryError{Message: "query timed out", Err: err}
	}
	return &QueryError{Message: err.Error(), Err: err}
}
