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
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	Storefront   StorefrontConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.Catalog.BaseURL) == "" {
		return nil, fmt.Errorf("%s is required", EnvCatalogBaseURL)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.NeedsDatabase() {
		if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadDatabase reads only the sections the migration tool needs, so it runs
// without catalog or storefront settings.
func LoadDatabase() (*Config, error) {
	var cfg Config
	for _, section := range []any{&cfg.App, &cfg.DB, &cfg.FeatureFlags} {
		if err := envconfig.Process(EnvPrefix, section); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NeedsDatabase reports whether any component requires the SQL connection.
// Lead forms always persist to SQL unless explicitly disabled.
func (c *Config) NeedsDatabase() bool {
	return c.Storage.Driver == StorageDriverSQL || c.FeatureFlags.LeadsEnabled
}

type AppConfig struct {
	Env          string `envconfig:"AUTOSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOSTORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AUTOSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTOSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StorageConfig struct {
	Driver    string `envconfig:"AUTOSTORE_STORAGE_DRIVER" default:"memory"`
	KeyPrefix string `envconfig:"AUTOSTORE_STORAGE_KEY_PREFIX" default:"autostore"`
}

func (s StorageConfig) validate() error {
	switch s.Driver {
	case StorageDriverMemory, StorageDriverRedis, StorageDriverSQL:
		return nil
	}
	return fmt.Errorf("%s must be one of %s, %s, %s", EnvStorageDriver, StorageDriverMemory, StorageDriverRedis, StorageDriverSQL)
}

type DBConfig struct {
	DSN    string `envconfig:"AUTOSTORE_DB_DSN"`
	Driver string `envconfig:"AUTOSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AUTOSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTOSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTOSTORE_DB_USER"`
	LegacyPassword string `envconfig:"AUTOSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTOSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTOSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTOSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTOSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOSTORE_REDIS_URL"`
	Address      string        `envconfig:"AUTOSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"AUTOSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTOSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CatalogConfig struct {
	BaseURL string `envconfig:"AUTOSTORE_CATALOG_BASE_URL" required:"true"`
	// Timeout of zero leaves catalog fetches unbounded.
	Timeout time.Duration `envconfig:"AUTOSTORE_CATALOG_TIMEOUT" default:"0s"`

	BreakerEnabled     bool          `envconfig:"AUTOSTORE_CATALOG_BREAKER_ENABLED" default:"true"`
	BreakerMaxFailures uint32        `envconfig:"AUTOSTORE_CATALOG_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"AUTOSTORE_CATALOG_BREAKER_OPEN_TIMEOUT" default:"30s"`
	BreakerInterval    time.Duration `envconfig:"AUTOSTORE_CATALOG_BREAKER_INTERVAL" default:"60s"`
}

type StorefrontConfig struct {
	GuestUserID           string  `envconfig:"AUTOSTORE_GUEST_USER_ID" default:"guest"`
	DefaultLoanTermMonths int     `envconfig:"AUTOSTORE_DEFAULT_LOAN_TERM_MONTHS" default:"36"`
	DefaultAnnualRate     float64 `envconfig:"AUTOSTORE_DEFAULT_ANNUAL_RATE" default:"12.5"`
	CompareLimit          int     `envconfig:"AUTOSTORE_COMPARE_LIMIT" default:"3"`
	EnrichConcurrency     int     `envconfig:"AUTOSTORE_ENRICH_CONCURRENCY" default:"8"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AUTOSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"AUTOSTORE_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"AUTOSTORE_AUTO_MIGRATE" default:"false"`
	LeadsEnabled bool `envconfig:"AUTOSTORE_FEATURE_LEADS" default:"true"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
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
