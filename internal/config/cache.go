package config

import "time"

// Cache key strategies.  The URL path is always part of the key.
const (
	CacheKeyPath          = "path"
	CacheKeyPathQuery     = "path_query"
	CacheKeyUserPathQuery = "user_path_query"
)

// CacheConfig controls the Redis response cache in front of the BI embed
// endpoint.  It is inert without a Redis client.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool // upper-case HTTP methods eligible for caching
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int // responses above this size are served but not stored
}

// LoadCacheConfig reads the CACHE_* variables.  Embed tokens are short
// lived, so the default TTL stays at five minutes.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      envSet("CACHE_METHODS", "GET"),
		TTL:          envDur("CACHE_TTL", 5*time.Minute),
		KeyStrategy:  oneOf(getenv("CACHE_KEY_STRATEGY", ""), CacheKeyPathQuery, CacheKeyPath, CacheKeyPathQuery, CacheKeyUserPathQuery),
		Prefix:       getenv("CACHE_PREFIX", "console:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return cfg
}
