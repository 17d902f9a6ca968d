package app

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/posapp/pos-backend/internal/platform/cache"
)

// writeTimeoutMargin keeps the server write deadline past the request timeout so the
// timeout middleware can still answer 503.
const writeTimeoutMargin = 5 * time.Second

// envFilesVar names the comma separated list of optional env files.
const envFilesVar = "POS_ENV_FILES"

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8000"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"35s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	PGDSN      string `envconfig:"PG_DSN"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBName     string `envconfig:"DB_DATABASE" default:"posapp"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	AllowEmptyPurchase bool `envconfig:"POS_ALLOW_EMPTY_PURCHASE" default:"false"`
	VerifyItems        bool `envconfig:"POS_VERIFY_ITEMS" default:"true"`
}

// LoadConfig reads configuration from environment variables after loading the optional
// env files named by POS_ENV_FILES. Variables already set in the environment win.
func LoadConfig() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.PGDSN == "" && cfg.DBHost == "" {
		return nil, errors.New("database host or PG_DSN must be provided")
	}
	if cfg.AppWriteTimeout <= cfg.AppRequestTimeout {
		cfg.AppWriteTimeout = cfg.AppRequestTimeout + writeTimeoutMargin
	}
	if cfg.RedisDB < 0 {
		return nil, errors.New("redis db must not be negative")
	}
	if cfg.RateLimitPerMinute < 0 {
		return nil, errors.New("rate limit must not be negative")
	}
	return &cfg, nil
}

func loadEnvFiles() error {
	files := os.Getenv(envFilesVar)
	if files == "" {
		files = ".env,env.sample"
	}
	for _, name := range strings.Split(files, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load env file %s: %w", name, err)
		}
	}
	return nil
}

// DSN returns PG_DSN when set, otherwise a postgres URL assembled from the DB_* parts.
func (c *Config) DSN() string {
	if c.PGDSN != "" {
		return c.PGDSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	if c.DBPassword != "" {
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	} else {
		u.User = url.User(c.DBUser)
	}
	if c.DBSSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.DBSSLMode}}.Encode()
	}
	return u.String()
}

// DatabaseTarget describes the database for startup logs without credentials.
func (c *Config) DatabaseTarget() (host, name string) {
	if c.PGDSN == "" {
		return c.DBHost, c.DBName
	}
	u, err := url.Parse(c.PGDSN)
	if err != nil {
		return "unknown", "unknown"
	}
	return u.Hostname(), strings.TrimPrefix(u.Path, "/")
}

// RedisEnabled reports whether REDIS_ADDR is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// RedisOptions returns the connection options for the catalog cache client.
func (c *Config) RedisOptions() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// QueueRedis returns the asynq connection options for the same Redis instance.
func (c *Config) QueueRedis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
