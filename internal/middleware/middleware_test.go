package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-console/internal/config"
	"github.com/iliyamo/admin-console/internal/repository"
	"github.com/iliyamo/admin-console/internal/repository/memory"
	"github.com/iliyamo/admin-console/internal/service"
	"github.com/iliyamo/admin-console/internal/session"
	"github.com/iliyamo/admin-console/internal/utils"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newAuth(t *testing.T) *service.AuthService {
	t.Helper()
	store := memory.New()
	require.NoError(t, repository.SeedDemo(context.Background(), store, func(p string) (string, error) {
		return utils.HashPassword(p, bcrypt.MinCost)
	}))
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 1, PublicAccessLevelID: "2"}
	return service.NewAuthService(store, cfg, nil, discard)
}

func login(t *testing.T, auth *service.AuthService, email, password string) string {
	t.Helper()
	g, err := auth.Authenticate(context.Background(), email, password)
	require.NoError(t, err)
	return g.Token
}

func TestBearer(t *testing.T) {
	e := echo.New()
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, want, Bearer(c), header)
	}
}

func TestGuards(t *testing.T) {
	auth := newAuth(t)
	admin := login(t, auth, "admin@example.com", "admin")
	user := login(t, auth, "user@example.com", "user")

	e := echo.New()
	g := e.Group("/v1", Session(auth, "2", discard))
	ok := func(c echo.Context) error {
		u, _ := SessionFrom(c).User()
		return c.String(http.StatusOK, u.Email)
	}
	g.GET("/me", ok, RequireSession())
	g.GET("/admin/users", ok, RequireAdmin())

	cases := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"anonymous me", "/v1/me", "", http.StatusUnauthorized},
		{"garbage token", "/v1/me", "nope", http.StatusUnauthorized},
		{"user me", "/v1/me", user, http.StatusOK},
		{"user admin", "/v1/admin/users", user, http.StatusForbidden},
		{"admin admin", "/v1/admin/users", admin, http.StatusOK},
		{"anonymous admin", "/v1/admin/users", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestSession_RevokedTokenIsUnauthenticated(t *testing.T) {
	auth := newAuth(t)
	token := login(t, auth, "user@example.com", "user")
	require.NoError(t, auth.Revoke(context.Background(), token))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	var state session.State
	h := Session(auth, "2", discard)(func(c echo.Context) error {
		state = SessionFrom(c).State()
		assert.Equal(t, "guest", userID(c))
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, session.Unauthenticated, state)
}

func TestLocalBuckets(t *testing.T) {
	cfg := config.RateLimitConfig{Capacity: 2, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	b := newLocalBuckets(cfg)
	now := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return now }

	v, ok := b.take(nil, "k")
	require.True(t, ok)
	assert.True(t, v.allowed)
	assert.Equal(t, int64(1), v.remaining)

	v, _ = b.take(nil, "k")
	assert.True(t, v.allowed)
	assert.Equal(t, int64(0), v.remaining)

	v, _ = b.take(nil, "k")
	assert.False(t, v.allowed)
	assert.InDelta(t, time.Second, v.retry, float64(10*time.Millisecond))

	v, _ = b.take(nil, "other")
	assert.True(t, v.allowed, "buckets are per key")

	now = now.Add(time.Second)
	v, _ = b.take(nil, "k")
	assert.True(t, v.allowed, "refilled after one interval")
}

func TestLocalBuckets_SweepsIdle(t *testing.T) {
	cfg := config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	b := newLocalBuckets(cfg)
	now := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return now }

	b.take(nil, "a")
	now = now.Add(2 * time.Minute)
	b.take(nil, "b")
	assert.Len(t, b.buckets, 1)
	assert.Contains(t, b.buckets, "b")
}

func TestTokenBucket_WithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: 2 * time.Hour, KeyStrategy: "ip_route", Prefix: "rl"}
	e := echo.New()
	e.POST("/v1/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, nil, discard))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	first := do()
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := do()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, []string{"3600", "3601"}, second.Header().Get("Retry-After"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /v1/auth/login", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:guest", buildRateKey(cfg, c))
}

func TestCacheKey_UsesURLPath(t *testing.T) {
	e := echo.New()
	key := func(strategy, method, target string) string {
		c := e.NewContext(httptest.NewRequest(method, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/powerbi/reports/:id/embed")
		return cacheKey(config.CacheConfig{Prefix: "cache", KeyStrategy: strategy}, c)
	}
	get := func(strategy, target string) string { return key(strategy, http.MethodGet, target) }

	assert.NotEqual(t, get("path_query", "/v1/powerbi/reports/1/embed"), get("path_query", "/v1/powerbi/reports/2/embed"))
	assert.Equal(t, get("path_query", "/v1/x?b=2&a=1"), get("path_query", "/v1/x?a=1&b=2"))
	assert.Equal(t, get("path", "/v1/x?a=1"), get("path", "/v1/x?a=2"))
	assert.NotEqual(t, get("path_query", "/v1/x?a=1"), get("path_query", "/v1/x?a=2"))
	assert.NotEqual(t, get("path", "/v1/x"), key("path", http.MethodHead, "/v1/x"))
	assert.Regexp(t, `^cache:[0-9a-f]{64}$`, get("path", "/v1/x"))
}

func TestCachedResponse_Binary(t *testing.T) {
	in := cachedResponse{Status: http.StatusOK, Header: http.Header{"Content-Type": {"application/json"}}, Body: []byte(`{"a":1}`)}
	bs, err := in.MarshalBinary()
	require.NoError(t, err)

	var out cachedResponse
	require.NoError(t, out.UnmarshalBinary(bs))
	assert.Equal(t, in, out)

	assert.ErrorIs(t, out.UnmarshalBinary([]byte{0, 0}), errCorruptEntry)
	assert.ErrorIs(t, out.UnmarshalBinary([]byte{0, 0, 0, 200, 0, 0, 0, 9, '{'}), errCorruptEntry)
}

func TestTeeWriter_DropsOversizeBody(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &teeWriter{ResponseWriter: rec, status: http.StatusOK, max: 4}
	_, _ = w.Write([]byte("abcd"))
	assert.False(t, w.overflow())
	assert.Equal(t, "abcd", w.body.String())

	_, _ = w.Write([]byte("ef"))
	assert.True(t, w.overflow())
	assert.Zero(t, w.body.Len())
	assert.Equal(t, "abcdef", rec.Body.String(), "the client still gets everything")
}

func TestNewRedisCache_WithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	mw := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}}, nil, discard)
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestMetrics_LabelsRoutePattern(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	var path string
	e.GET("/v1/admin/users/:id", func(c echo.Context) error {
		path = metricPath(c)
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/users/42", nil))
	assert.Equal(t, "/v1/admin/users/:id", path)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
