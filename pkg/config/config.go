package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Reports      ReportsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FURNISTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"FURNISTORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FURNISTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FURNISTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FURNISTORE_DB_DSN"`
	Driver string `envconfig:"FURNISTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FURNISTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"FURNISTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FURNISTORE_DB_USER"`
	LegacyPassword string `envconfig:"FURNISTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FURNISTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FURNISTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FURNISTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FURNISTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FURNISTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FURNISTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FURNISTORE_REDIS_URL"`
	Address      string        `envconfig:"FURNISTORE_REDIS_ADDR"`
	Password     string        `envconfig:"FURNISTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FURNISTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FURNISTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FURNISTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FURNISTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FURNISTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FURNISTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. The report
// cache degrades to direct reads when it is absent.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FURNISTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FURNISTORE_AUTO_MIGRATE" default:"false"`

	// AutoDebitStock makes order placement write export movements through
	// the stock ledger in the same transaction. Off by default: physical
	// stock is reconciled by warehouse staff through explicit inventory
	// transactions.
	AutoDebitStock bool `envconfig:"FURNISTORE_AUTO_DEBIT_STOCK" default:"false"`
}

type ReportsConfig struct {
	CacheTTL time.Duration `envconfig:"FURNISTORE_REPORTS_CACHE_TTL" default:"60s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
