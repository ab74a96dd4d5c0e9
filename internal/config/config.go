package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends selectable with DATA_BACKEND.
const (
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env         string // APP_ENV (dev, test, prod)
	Port        string // APP_PORT
	DataBackend string // DATA_BACKEND: mysql | memory

	DBUser string // DB_USER
	DBPass string // DB_PASS (empty allowed)
	DBHost string // DB_HOST
	DBPort string // DB_PORT
	DBName string // DB_NAME

	// AnalyticsDSN points the SQL runner at a separate (ideally read-only)
	// MySQL account.  Empty reuses the main pool; with the memory backend an
	// empty value disables query execution.
	AnalyticsDSN string // ANALYTICS_DSN

	JWTSecret      string // JWT_SECRET
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST

	PublicAccessLevelID string // PUBLIC_ACCESS_LEVEL_ID, the level every user may see
	SeedDemo            bool   // SEED_DEMO loads demo accounts and menus on start
	AutoMigrate         bool   // DB_AUTO_MIGRATE applies schema migrations on start

	AMQPURL      string // RABBITMQ_URL (or AMQP_URL); empty disables audit events
	AuditQueue   string // AUDIT_QUEUE
	AuditLogPath string // AUDIT_LOG_PATH, written by the audit consumer

	PowerBIEndpoint    string // POWERBI_EMBED_ENDPOINT, token service URL
	PowerBIAPIKey      string // POWERBI_API_KEY
	PowerBIURLTemplate string // POWERBI_EMBED_URL_TEMPLATE used without an endpoint

	LogLevel  string // LOG_LEVEL
	LogFormat string // LOG_FORMAT: json | text
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.  Every missing or malformed required variable is
// reported in the returned error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var r reader
	cfg := Config{
		Env:         getenv("APP_ENV", "dev"),
		Port:        getenv("APP_PORT", "8080"),
		DataBackend: strings.ToLower(getenv("DATA_BACKEND", BackendMySQL)),

		AnalyticsDSN: os.Getenv("ANALYTICS_DSN"),

		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     r.mustInt("BCRYPT_COST", 10),

		PublicAccessLevelID: getenv("PUBLIC_ACCESS_LEVEL_ID", "2"),
		SeedDemo:            envBool("SEED_DEMO", false),
		AutoMigrate:         envBool("DB_AUTO_MIGRATE", true),

		AMQPURL:      firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		AuditQueue:   getenv("AUDIT_QUEUE", "console.audit"),
		AuditLogPath: getenv("AUDIT_LOG_PATH", "logs/audit.log"),

		PowerBIEndpoint:    os.Getenv("POWERBI_EMBED_ENDPOINT"),
		PowerBIAPIKey:      os.Getenv("POWERBI_API_KEY"),
		PowerBIURLTemplate: getenv("POWERBI_EMBED_URL_TEMPLATE", "https://app.powerbi.com/reportEmbed?reportId={reportId}&groupId={workspaceId}"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}

	switch cfg.DataBackend {
	case BackendMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.must("DB_PORT")
		cfg.DBName = r.must("DB_NAME")
	case BackendMemory:
		if !cfg.SeedDemo {
			cfg.SeedDemo = envBool("SEED_DEMO", true)
		}
	default:
		r.fail("DATA_BACKEND: unknown backend %q", cfg.DataBackend)
	}
	if cfg.AccessTTLMin <= 0 {
		r.fail("ACCESS_TOKEN_TTL_MIN must be positive")
	}
	return cfg, r.err()
}

// reader accumulates problems so Load can report all of them at once.
type reader struct{ problems []string }

func (r *reader) fail(format string, args ...any) {
	r.problems = append(r.problems, fmt.Sprintf(format, args...))
}

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.fail("missing required env var: %s", key)
	}
	return v
}

// mustInt reads an integer variable, falling back to def when unset.  A
// present but non-numeric value is an error.
func (r *reader) mustInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail("invalid int for %s: %q", key, s)
	}
	return n
}

func (r *reader) err() error {
	if len(r.problems) == 0 {
		return nil
	}
	return errors.New("config: " + strings.Join(r.problems, "; "))
}

// MySQLDSN renders the go-sql-driver DSN for the main database.
// clientFoundRows makes UPDATE report matched rather than changed rows.
func (c Config) MySQLDSN() string {
	auth := c.DBUser
	if c.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL renders the golang-migrate database URL.  Migration files hold
// several statements each, so multiStatements is enabled here only.
func (c Config) MigrateURL() string {
	return "mysql://" + c.MySQLDSN() + "&multiStatements=true"
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
