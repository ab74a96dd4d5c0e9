package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/admin-console/internal/config"
)

// cachedResponse is one stored response.  It implements the binary
// (un)marshalers so go-redis stores and scans it directly.
//
// Layout: status (4 bytes) | header length (4 bytes) | header JSON | body.
type cachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r cachedResponse) MarshalBinary() ([]byte, error) {
	hdr, err := json.Marshal(r.Header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8, 8+len(hdr)+len(r.Body))
	binary.BigEndian.PutUint32(out[0:4], uint32(r.Status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	out = append(out, hdr...)
	return append(out, r.Body...), nil
}

var errCorruptEntry = errors.New("cache: corrupt entry")

func (r *cachedResponse) UnmarshalBinary(bs []byte) error {
	if len(bs) < 8 {
		return errCorruptEntry
	}
	n := uint64(binary.BigEndian.Uint32(bs[4:8]))
	if 8+n > uint64(len(bs)) {
		return errCorruptEntry
	}
	hdr := http.Header{}
	if n > 0 {
		if err := json.Unmarshal(bs[8:8+n], &hdr); err != nil {
			return errCorruptEntry
		}
	}
	r.Status = int(binary.BigEndian.Uint32(bs[0:4]))
	r.Header = hdr
	r.Body = append([]byte(nil), bs[8+n:]...)
	return nil
}

// teeWriter forwards the response to the client and keeps a copy of the
// body until it grows past max.
type teeWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
	n      int64
	max    int64 // 0 means unbounded
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.n += int64(len(b))
	if w.overflow() {
		w.body.Reset()
	} else {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) overflow() bool { return w.max > 0 && w.n > w.max }

// cacheKey hashes the method, URL path and, per strategy, the sorted query
// and caller.  The URL path is used rather than the route pattern so
// /reports/1 and /reports/2 never share an entry.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	parts := []string{r.Method, r.URL.Path}
	switch strings.ToLower(cfg.KeyStrategy) {
	case config.CacheKeyPath:
	case config.CacheKeyUserPathQuery:
		parts = append(parts, r.URL.Query().Encode(), userID(c))
	default:
		parts = append(parts, r.URL.Query().Encode())
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache replays 200 responses from Redis.  A hit carries the
// stored status, headers and body plus X-Cache: HIT.  Redis failures are
// logged and the request is served uncached.  Without Redis the middleware
// does nothing.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	logger = logger.With(slog.String("component", "cache"))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[req.Method] {
				return next(c)
			}
			ctx := req.Context()
			key := cacheKey(cfg, c)

			var hit cachedResponse
			switch err := rdb.Get(ctx, key).Scan(&hit); {
			case err == nil:
				return replay(c, hit)
			case !errors.Is(err, redis.Nil):
				logger.Warn("cache lookup failed", slog.String("key", key), slog.String("error", err.Error()))
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, max: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = tee
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tee.status != http.StatusOK || tee.overflow() {
				return nil
			}

			entry := cachedResponse{Status: tee.status, Header: c.Response().Header().Clone(), Body: tee.body.Bytes()}
			entry.Header.Del("X-Cache")
			entry.Header.Del(echo.HeaderContentLength)
			if err := rdb.Set(context.WithoutCancel(ctx), key, entry, cfg.TTL).Err(); err != nil {
				logger.Warn("cache store failed", slog.String("key", key), slog.String("error", err.Error()))
			}
			return nil
		}
	}
}

func replay(c echo.Context, r cachedResponse) error {
	h := c.Response().Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	h.Set("X-Cache", "HIT")
	return c.Blob(r.Status, h.Get(echo.HeaderContentType), r.Body)
}
