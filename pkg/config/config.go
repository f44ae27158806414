package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Realtime     RealtimeConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PLANBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"PLANBOARD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PLANBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLANBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PLANBOARD_DB_DSN"`
	Driver string `envconfig:"PLANBOARD_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PLANBOARD_DB_HOST"`
	Port     int    `envconfig:"PLANBOARD_DB_PORT" default:"5432"`
	User     string `envconfig:"PLANBOARD_DB_USER"`
	Password string `envconfig:"PLANBOARD_DB_PASSWORD"`
	Name     string `envconfig:"PLANBOARD_DB_NAME"`
	SSLMode  string `envconfig:"PLANBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLANBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLANBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLANBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLANBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLANBOARD_REDIS_URL"`
	Address      string        `envconfig:"PLANBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"PLANBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLANBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLANBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLANBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLANBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLANBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLANBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"PLANBOARD_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"PLANBOARD_JWT_ISSUER" required:"true"`
}

type RealtimeConfig struct {
	Channel        string        `envconfig:"PLANBOARD_REALTIME_CHANNEL" default:"planboard.changes"`
	SendBuffer     int           `envconfig:"PLANBOARD_REALTIME_SEND_BUFFER" default:"16"`
	PingInterval   time.Duration `envconfig:"PLANBOARD_REALTIME_PING_INTERVAL" default:"30s"`
	WriteTimeout   time.Duration `envconfig:"PLANBOARD_REALTIME_WRITE_TIMEOUT" default:"10s"`
	ReadLimitBytes int64         `envconfig:"PLANBOARD_REALTIME_READ_LIMIT" default:"4096"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PLANBOARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PLANBOARD_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		"PLANBOARD_DB_HOST": db.Host,
		"PLANBOARD_DB_USER": db.User,
		"PLANBOARD_DB_NAME": db.Name,
	}
	for _, key := range []string{"PLANBOARD_DB_HOST", "PLANBOARD_DB_USER", "PLANBOARD_DB_NAME"} {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either PLANBOARD_DB_DSN or %s are required", strings.Join(missing, ", "))
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
