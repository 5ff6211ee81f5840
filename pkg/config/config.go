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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Recruitment  RecruitmentConfig
	Inventory    InventoryConfig
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
	Env          string `envconfig:"OPSDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"OPSDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OPSDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OPSDESK_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"OPSDESK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"OPSDESK_DB_DSN"`

	Host     string `envconfig:"OPSDESK_DB_HOST"`
	Port     int    `envconfig:"OPSDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"OPSDESK_DB_USER"`
	Password string `envconfig:"OPSDESK_DB_PASSWORD"`
	Name     string `envconfig:"OPSDESK_DB_NAME"`
	SSLMode  string `envconfig:"OPSDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OPSDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OPSDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OPSDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OPSDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OPSDESK_REDIS_URL"`
	Address      string        `envconfig:"OPSDESK_REDIS_ADDR"`
	Password     string        `envconfig:"OPSDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"OPSDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OPSDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OPSDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OPSDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OPSDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OPSDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OPSDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OPSDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OPSDESK_JWT_EXPIRATION_MINUTES" default:"480"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OPSDESK_FEATURE_AUTO_MIGRATE" default:"false"`
}

type RecruitmentConfig struct {
	// IDPrefix is the public identifier prefix, e.g. APL-2026-0001.
	IDPrefix          string `envconfig:"OPSDESK_RECRUITMENT_ID_PREFIX" default:"APL"`
	SequenceDigits    int    `envconfig:"OPSDESK_RECRUITMENT_SEQUENCE_DIGITS" default:"4"`
	NotifyOnSubmitted bool   `envconfig:"OPSDESK_RECRUITMENT_NOTIFY_SUBMITTED" default:"true"`
}

type InventoryConfig struct {
	NotifyOnLowStock bool `envconfig:"OPSDESK_INVENTORY_NOTIFY_LOW_STOCK" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
