package config

import "time"

// Rate-limit key strategies: which request attributes identify a bucket.
var rateKeyStrategies = []string{"ip", "user", "route", "ip_user", "ip_route", "user_route"}

// RateLimitConfig sizes the token buckets guarding login and SQL execution.
// A bucket holds Capacity tokens and regains RefillTokens every
// RefillInterval; idle buckets expire after TTL.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables.  The defaults let a
// client try ten logins in a row, then one every six seconds.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       max(envInt("RATE_LIMIT_CAPACITY", 10), 1),
		RefillTokens:   max(envInt("RATE_LIMIT_REFILL_TOKENS", 1), 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    oneOf(getenv("RATE_LIMIT_KEY_STRATEGY", ""), "ip_route", rateKeyStrategies...),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "console:rl"),
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// A bucket must outlive a full refill or it resets early.
	cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
	return cfg
}
