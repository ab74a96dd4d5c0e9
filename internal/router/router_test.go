package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-console/internal/analytics"
	"github.com/iliyamo/admin-console/internal/config"
	"github.com/iliyamo/admin-console/internal/handler"
	"github.com/iliyamo/admin-console/internal/middleware"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/powerbi"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
	"github.com/iliyamo/admin-console/internal/repository/memory"
	"github.com/iliyamo/admin-console/internal/service"
	"github.com/iliyamo/admin-console/internal/utils"
)

type fakeExec struct {
	res analytics.Result
	err error
	got []string
}

func (f *fakeExec) Execute(_ context.Context, sql string) (analytics.Result, error) {
	f.got = append(f.got, sql)
	return f.res, f.err
}

type fakeEmbed struct{ err error }

func (f fakeEmbed) GetEmbedInfo(_ context.Context, ref powerbi.Ref) (powerbi.EmbedInfo, error) {
	if f.err != nil {
		return powerbi.EmbedInfo{}, f.err
	}
	return powerbi.EmbedInfo{EmbedToken: "tok", EmbedURL: "https://bi.example.com/" + ref.ReportID, ReportID: ref.ReportID}, nil
}

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	store *repository.Store
	exec  *fakeExec
	embed *fakeEmbed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	require.NoError(t, repository.SeedDemo(context.Background(), store, func(p string) (string, error) {
		return utils.HashPassword(p, bcrypt.MinCost)
	}))
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost, PublicAccessLevelID: "2"}
	auth := service.NewAuthService(store, cfg, queue.Nop{}, logger)

	exec := &fakeExec{}
	embed := &fakeEmbed{}
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	session := middleware.Session(auth, cfg.PublicAccessLevelID, logger)

	e := echo.New()
	RegisterRoutes(e, handler.Ready(nil))
	RegisterAuth(e, handler.NewAuthHandler(auth, cfg.PublicAccessLevelID, logger), session, pass)
	RegisterAdmin(e, handler.NewAdminHandler(store, nil, cfg.BcryptCost, logger), session)
	RegisterConsole(e,
		handler.NewScreenHandler(store.Screens, cfg.PublicAccessLevelID, logger),
		handler.NewAnalyticsHandler(store.Queries, exec, nil, logger),
		handler.NewPowerBIHandler(store.Reports, embed, nil, logger),
		session, pass, pass,
	)
	return &testServer{t: t, e: e, store: store, exec: exec, embed: embed}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(email, password, returnTo string) model.AuthResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": email, "password": password, "returnTo": returnTo})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp model.AuthResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func names(ms []*model.Menu) []string {
	out := []string{}
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}

func TestUpdatesAreFullReplaceOnly(t *testing.T) {
	s := newTestServer(t)
	puts := 0
	for _, r := range s.e.Routes() {
		assert.NotEqual(t, http.MethodPatch, r.Method, r.Path)
		if r.Method == http.MethodPut {
			puts++
		}
	}
	assert.Equal(t, 8, puts)
}

func TestLogin_FilteredMenusAndLanding(t *testing.T) {
	s := newTestServer(t)

	user := s.login("user@example.com", "user", "")
	assert.Equal(t, "/dashboard", user.Redirect)
	assert.Equal(t, []string{"Dashboard", "Analytics", "Power BI", "External System"}, names(user.Menus))
	assert.NotEmpty(t, user.Token)
	assert.NotEmpty(t, user.RefreshToken)

	admin := s.login("ADMIN@example.com ", "admin", "")
	assert.Equal(t, "/admin/dashboard", admin.Redirect)
	assert.Equal(t, []string{"Dashboard", "Administration", "Analytics", "Power BI", "External System"}, names(admin.Menus))
	assert.Len(t, admin.Menus[1].Children, 5)
}

func TestLogin_ReturnTo(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, "/dashboard", s.login("user@example.com", "user", "/admin/users").Redirect)
	assert.Equal(t, "/analytics/queries/7/run", s.login("user@example.com", "user", "/analytics/queries/7/run").Redirect)
	assert.Equal(t, "/admin/dashboard", s.login("admin@example.com", "admin", "https://evil.example.com").Redirect)
	assert.Equal(t, "/admin/users", s.login("admin@example.com", "admin", "/admin/users").Redirect)
}

func TestLogin_Rejected(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "user@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/me", "", nil).Code)

	tok := s.login("user@example.com", "user", "").Token
	me := decode[model.User](t, s.do(http.MethodGet, "/v1/me", tok, nil))
	assert.Equal(t, "user@example.com", me.Email)

	menus := decode[[]*model.Menu](t, s.do(http.MethodGet, "/v1/me/menus", tok, nil))
	assert.Equal(t, []string{"Dashboard", "Analytics", "Power BI", "External System"}, names(menus))

	sess := decode[model.AuthResponse](t, s.do(http.MethodGet, "/v1/auth/session", tok, nil))
	assert.Equal(t, tok, sess.Token)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/v1/auth/logout", tok, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/me", tok, nil).Code)
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	first := s.login("user@example.com", "user", "")

	rec := s.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := decode[model.AuthResponse](t, rec)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)
	assert.Len(t, rotated.Menus, 4)

	rec = s.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refreshToken": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "rotated token is revoked")

	rec = s.do(http.MethodPost, "/v1/auth/refresh-access", "", echo.Map{"refreshToken": rotated.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[model.AuthResponse](t, rec).RefreshToken)
}

func TestNavigation(t *testing.T) {
	s := newTestServer(t)
	user := s.login("user@example.com", "user", "").Token

	cases := []struct {
		token, path, want string
	}{
		{"", "/admin/users", `{"decision":"redirect_to_login","location":"/login","returnTo":"/admin/users"}`},
		{user, "/admin/users", `{"decision":"redirect_to_default","location":"/dashboard"}`},
		{user, "/dashboard", `{"decision":"allow"}`},
		{"", "/login", `{"decision":"allow"}`},
		{user, "/", `{"decision":"redirect_to_default","location":"/dashboard"}`},
		{user, "/nowhere", `{"decision":"not_found"}`},
	}
	for _, tc := range cases {
		rec := s.do(http.MethodGet, "/v1/navigation?path="+tc.path, tc.token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, tc.want, rec.Body.String(), tc.path)
	}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/navigation", user, nil).Code)
}

func TestAdmin_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	user := s.login("user@example.com", "user", "").Token
	admin := s.login("admin@example.com", "admin", "").Token

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/admin/users", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/v1/admin/users", user, nil).Code)
	rec := s.do(http.MethodGet, "/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.User](t, rec), 2)
}

func TestAdmin_Users(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com", "admin", "").Token

	rec := s.do(http.MethodPost, "/v1/admin/users", admin, echo.Map{"name": "Carol", "email": "Carol@Example.com", "password": "pw", "groupId": "2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	carol := decode[model.User](t, rec)
	assert.Equal(t, "carol@example.com", carol.Email)
	assert.Equal(t, "2", carol.AccessLevelID, "defaults to the group's level")
	assert.Equal(t, model.RoleUser, carol.Role)

	s.login("carol@example.com", "pw", "")

	rec = s.do(http.MethodPost, "/v1/admin/users", admin, echo.Map{"name": "Dup", "email": "carol@example.com", "password": "pw", "groupId": "2"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/v1/admin/users", admin, echo.Map{"name": "X", "email": "x@example.com", "password": "pw", "role": "root", "accessLevelId": "2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/admin/users", admin, echo.Map{"name": "X", "email": "x@example.com", "password": "pw", "accessLevelId": "99"})
	assert.JSONEq(t, `{"error":"accessLevelId does not exist"}`, rec.Body.String())

	// A password bcrypt refuses leaves the whole record untouched.
	rec = s.do(http.MethodPut, "/v1/admin/users/"+carol.ID, admin, echo.Map{"name": "Caroline", "email": "carol@example.com", "groupId": "2", "password": strings.Repeat("p", 73)})
	assert.JSONEq(t, `{"error":"password must be at most 72 bytes"}`, rec.Body.String())
	assert.Equal(t, "Carol", decode[model.User](t, s.do(http.MethodGet, "/v1/admin/users/"+carol.ID, admin, nil)).Name)
	s.login("carol@example.com", "pw", "")

	rec = s.do(http.MethodPut, "/v1/admin/users/"+carol.ID, admin, echo.Map{"name": "Carol", "email": "carol@example.com", "groupId": "2", "status": "blocked", "password": "new"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusBlocked, decode[model.User](t, rec).Status)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "carol@example.com", "password": "new"}).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/v1/admin/users/1", admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/v1/admin/users/"+carol.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/admin/users/"+carol.ID, admin, nil).Code)
}

func TestAdmin_Menus(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com", "admin", "").Token

	bad := []echo.Map{
		{"name": "x", "icon": "Skull"},
		{"name": "x", "route": "/a", "externalUrl": "https://example.com"},
		{"name": "x", "route": "nope"},
		{"name": "x", "externalUrl": "ftp://example.com"},
		{"name": "x", "parentId": "404"},
		{"name": "x", "accessLevelId": "404"},
		{"name": ""},
	}
	for _, body := range bad {
		rec := s.do(http.MethodPost, "/v1/admin/menus", admin, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%v -> %s", body, rec.Body.String())
	}

	rec := s.do(http.MethodPost, "/v1/admin/menus", admin, echo.Map{"name": "Reports Hub", "icon": "Folder", "route": "/reports", "parentId": "9", "accessLevelId": "2", "order": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decode[model.Menu](t, rec)
	assert.True(t, m.IsActive)
	assert.True(t, m.RequiresAuth)

	// Making the Analytics group a child of its own child closes a loop.
	rec = s.do(http.MethodPut, "/v1/admin/menus/9", admin, echo.Map{"name": "Analytics", "icon": "BarChart", "parentId": m.ID, "accessLevelId": "2", "order": 3})
	assert.JSONEq(t, `{"error":"parentId would create a cycle"}`, rec.Body.String())
	rec = s.do(http.MethodPut, "/v1/admin/menus/9", admin, echo.Map{"name": "Analytics", "parentId": "9"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tree := decode[[]*model.Menu](t, s.do(http.MethodGet, "/v1/admin/menus/tree", admin, nil))
	require.Len(t, tree, 5)
	assert.Equal(t, []string{"SQL Queries", "Reports Hub"}, names(tree[2].Children))

	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/v1/admin/menus/9", admin, nil).Code)

	// Deactivated menus disappear from the user's tree.
	rec = s.do(http.MethodPut, "/v1/admin/menus/8", admin, echo.Map{"name": "External System", "externalUrl": "https://example.com", "accessLevelId": "2", "order": 5, "isActive": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := s.login("user@example.com", "user", "")
	assert.Equal(t, []string{"Dashboard", "Analytics", "Power BI"}, names(user.Menus))
}

func TestAdmin_AccessLevels(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com", "admin", "").Token

	rec := s.do(http.MethodPost, "/v1/admin/access-levels", admin, echo.Map{"name": "Reporting", "parentId": "1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	child := decode[model.AccessLevel](t, rec)

	rec = s.do(http.MethodPut, "/v1/admin/access-levels/1", admin, echo.Map{"name": "Full Access", "parentId": child.ID})
	assert.JSONEq(t, `{"error":"parentId would create a cycle"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/admin/access-levels", admin, echo.Map{"name": "Orphan", "parentId": "404"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/v1/admin/access-levels/2", admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/v1/admin/access-levels/"+child.ID, admin, nil).Code)
}

func TestAdmin_GroupsScreensPermissions(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com", "admin", "").Token

	rec := s.do(http.MethodPost, "/v1/admin/groups", admin, echo.Map{"name": "Analysts", "accessLevelId": "2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodDelete, "/v1/admin/groups/2", admin, nil).Code)

	rec = s.do(http.MethodPost, "/v1/admin/screens", admin, echo.Map{"name": "Welcome", "content": "<h1>Hi</h1>", "contentType": "html"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	screen := decode[model.Screen](t, rec)
	rec = s.do(http.MethodPost, "/v1/admin/screens", admin, echo.Map{"name": "Bad", "content": "x", "contentType": "pdf"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/admin/permissions", admin, echo.Map{"accessLevelId": "2", "resourceType": "screen", "resourceId": screen.ID, "actions": echo.Map{"view": true}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/v1/admin/permissions", admin, echo.Map{"accessLevelId": "2", "resourceType": "menu", "resourceId": "404"})
	assert.JSONEq(t, `{"error":"resourceId does not exist"}`, rec.Body.String())

	perms := decode[[]model.Permission](t, s.do(http.MethodGet, "/v1/admin/permissions?accessLevelId=2", admin, nil))
	require.Len(t, perms, 1)
	assert.True(t, perms[0].Actions.View)
	assert.Empty(t, decode[[]model.Permission](t, s.do(http.MethodGet, "/v1/admin/permissions?accessLevelId=1", admin, nil)))
}

func TestScreenView_Visibility(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com", "admin", "").Token
	user := s.login("user@example.com", "user", "").Token

	create := func(level any) string {
		rec := s.do(http.MethodPost, "/v1/admin/screens", admin, echo.Map{"name": "S", "content": "c", "contentType": "component", "accessLevelId": level})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[model.Screen](t, rec).ID
	}
	open, basic, full := create(nil), create("2"), create("1")

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/screens/"+open, user, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/screens/"+basic, user, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/screens/"+full, user, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/screens/"+full, admin, nil).Code)
}

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)
	user := s.login("user@example.com", "user", "").Token

	rec := s.do(http.MethodPost, "/v1/analytics/queries", user, echo.Map{"name": "Users", "sqlQuery": "SELECT name FROM users"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	q := decode[model.AnalyticsQuery](t, rec)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/analytics/queries", user, echo.Map{"name": "Empty"}).Code)

	s.exec.res = analytics.Result{
		Columns: []string{"name"},
		Rows:    []map[string]any{{"name": "alice"}, {"name": "bob"}, {"name": "alfred"}},
	}
	rec = s.do(http.MethodPost, "/v1/analytics/queries/"+q.ID+"/run?filter=AL&size=1&page=2", user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[analytics.Page](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, []map[string]any{{"name": "alfred"}}, page.Rows)
	assert.Equal(t, []string{"SELECT name FROM users"}, s.exec.got)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/analytics/execute?page=0", user, echo.Map{"sql": "SELECT 1"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/analytics/execute", user, echo.Map{"sql": " "}).Code)

	s.exec.err = &analytics.QueryError{Message: "Table 'x' doesn't exist"}
	rec = s.do(http.MethodPost, "/v1/analytics/execute", user, echo.Map{"sql": "SELECT * FROM x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Table 'x' doesn't exist"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/v1/analytics/queries/404/run", user, nil).Code)
}

func TestPowerBI(t *testing.T) {
	s := newTestServer(t)
	user := s.login("user@example.com", "user", "").Token

	rec := s.do(http.MethodPost, "/v1/powerbi/reports", user, echo.Map{"name": "Sales", "reportId": "r1", "workspaceId": "w1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	r := decode[model.PowerBIReport](t, rec)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/powerbi/reports", user, echo.Map{"name": "x", "reportId": "r"}).Code)

	rec = s.do(http.MethodGet, "/v1/powerbi/reports/"+r.ID+"/embed", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, powerbi.EmbedInfo{EmbedToken: "tok", EmbedURL: "https://bi.example.com/r1", ReportID: "r1"}, decode[powerbi.EmbedInfo](t, rec))

	s.embed.err = &powerbi.EmbedError{Message: "service down"}
	rec = s.do(http.MethodGet, "/v1/powerbi/reports/"+r.ID+"/embed", user, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"service down"}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/v1/powerbi/reports/"+r.ID, user, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/powerbi/reports/"+r.ID+"/embed", user, nil).Code)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/readyz", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil).Code)
}
