package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/admin-console/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewMySQLStore(db, nil), mock
}

var userCols = []string{"id", "name", "email", "role", "group_id", "access_level_id", "status", "created_at", "updated_at"}

func TestUserRepo_GetCredentials(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows(append(userCols, "password_hash")).
			AddRow("1", "Admin User", "admin@example.com", "admin", nil, "1", "active", now, now, "$2a$hash"))

	u, hash, err := s.Users.GetCredentials(context.Background(), "  Admin@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "", u.GroupID)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "$2a$hash", hash)
}

func TestUserRepo_GetMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs("404").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := s.Users.Get(context.Background(), "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Dup", "dup@example.com", "hash", "user", nil, "2", "active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	u := &model.User{Name: "Dup", Email: "DUP@example.com", Role: "user", AccessLevelID: "2", Status: "active"}
	err := s.Users.Create(context.Background(), u, "hash")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "dup@example.com", u.Email)
}

func TestUserRepo_UpdateMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Users.Update(context.Background(), &model.User{ID: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccessLevelRepo_DeleteReferenced(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM access_levels WHERE id=?")).
		WithArgs("1").
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})

	assert.ErrorIs(t, s.AccessLevels.Delete(context.Background(), "1"), ErrConflict)
}

func TestMenuRepo_ListActive(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now().UTC()
	cols := []string{"id", "name", "icon", "route", "external_url", "parent_id", "screen_id", "requires_auth", "access_level_id", "sort_order", "is_active", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM menus WHERE is_active=1 ORDER BY sort_order")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("1", "Dashboard", "LayoutDashboard", "/dashboard", nil, nil, nil, true, "2", 1, true, now, now).
			AddRow("3", "Users", "Sparkles", "/admin/users", nil, "2", nil, true, "1", 1, true, now, now).
			AddRow("8", "External", nil, nil, "https://example.com", nil, nil, false, nil, 5, true, now, now))

	menus, err := s.Menus.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, menus, 3)

	assert.Equal(t, "LayoutDashboard", menus[0].Icon)
	assert.Nil(t, menus[0].ParentID)
	require.NotNil(t, menus[0].AccessLevelID)
	assert.Equal(t, "2", *menus[0].AccessLevelID)

	assert.Empty(t, menus[1].Icon, "unknown icon is dropped on read")
	require.NotNil(t, menus[1].ParentID)
	assert.Equal(t, "2", *menus[1].ParentID)

	assert.Equal(t, "https://example.com", menus[2].ExternalURL)
	assert.Empty(t, menus[2].Route)
	assert.Nil(t, menus[2].AccessLevelID)
}

func TestPermissionRepo_ListByAccessLevel(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM permissions WHERE access_level_id=?")).
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access_level_id", "resource_type", "resource_id", "actions"}).
			AddRow("p1", "2", "menu", "1", []byte(`{"view":true,"create":false,"update":false,"delete":false,"admin":false}`)))

	ps, err := s.Permissions.ListByAccessLevel(context.Background(), "2")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.True(t, ps[0].Actions.View)
	assert.False(t, ps[0].Actions.Admin)
}

func TestPermissionRepo_CreateEncodesActions(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO permissions")).
		WithArgs(sqlmock.AnyArg(), "1", "screen", "s1", []byte(`{"view":true,"create":true,"update":false,"delete":false,"admin":false}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := &model.Permission{AccessLevelID: "1", ResourceType: "screen", ResourceID: "s1", Actions: model.Actions{View: true, Create: true}}
	require.NoError(t, s.Permissions.Create(context.Background(), p))
	assert.NotEmpty(t, p.ID)
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	cols := []string{"user_id", "expires_at", "revoked_at"}
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name    string
		row     []any
		wantID  string
		wantErr error
	}{
		{"live", []any{"u1", future, nil}, "u1", nil},
		{"revoked", []any{"u1", future, past}, "", ErrNotFound},
		{"expired", []any{"u1", past, nil}, "", ErrNotFound},
		{"unknown", nil, "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t)
			rows := sqlmock.NewRows(cols)
			if tt.row != nil {
				rows.AddRow(tt.row[0], tt.row[1], tt.row[2])
			}
			mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
				WithArgs("h").
				WillReturnRows(rows)

			id, err := s.Tokens.ValidateRefresh(context.Background(), "h")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestQueryRepo_ListNewestFirst(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM analytics_queries ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "sql_query", "created_at", "updated_at"}).
			AddRow("q2", "Newer", "", "SELECT 2", now, now).
			AddRow("q1", "Older", "", "SELECT 1", now.Add(-time.Hour), now.Add(-time.Hour)))

	qs, err := s.Queries.List(context.Background())
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "q2", qs[0].ID)
}
