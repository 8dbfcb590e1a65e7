package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Sheets        SheetsConfig
	Schedule      ScheduleConfig
	PubSub        PubSubConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Sheets.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"CRONOGRAMA_APP_ENV" required:"true"`
	Port         string   `envconfig:"CRONOGRAMA_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"CRONOGRAMA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"CRONOGRAMA_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"CRONOGRAMA_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"CRONOGRAMA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CRONOGRAMA_SERVICE_KIND" default:"api"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRONOGRAMA_REDIS_URL"`
	Address      string        `envconfig:"CRONOGRAMA_REDIS_ADDR"`
	Password     string        `envconfig:"CRONOGRAMA_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRONOGRAMA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRONOGRAMA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRONOGRAMA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRONOGRAMA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRONOGRAMA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRONOGRAMA_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"CRONOGRAMA_REDIS_KEY_PREFIX" default:"cg"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CRONOGRAMA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CRONOGRAMA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CRONOGRAMA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CRONOGRAMA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// TTL is the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"CRONOGRAMA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginKeyLimit    int           `envconfig:"CRONOGRAMA_AUTH_RATE_LIMIT_LOGIN_KEY_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"CRONOGRAMA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow   time.Duration `envconfig:"CRONOGRAMA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterKeyLimit int           `envconfig:"CRONOGRAMA_AUTH_RATE_LIMIT_REGISTER_KEY_LIMIT" default:"3"`
	RegisterIPLimit  int           `envconfig:"CRONOGRAMA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// SheetsConfig locates the spreadsheet and the credential used to reach it.
type SheetsConfig struct {
	SpreadsheetURL  string        `envconfig:"CRONOGRAMA_SHEETS_URL" required:"true"`
	DataTab         string        `envconfig:"CRONOGRAMA_SHEETS_DATA_TAB" default:"Cronograma"`
	UsersTab        string        `envconfig:"CRONOGRAMA_SHEETS_USERS_TAB" default:"Usuários"`
	CredentialsJSON string        `envconfig:"CRONOGRAMA_GOOGLE_CREDENTIALS_JSON"`
	CredentialsFile string        `envconfig:"CRONOGRAMA_GOOGLE_APPLICATION_CREDENTIALS"`
	CallTimeout     time.Duration `envconfig:"CRONOGRAMA_SHEETS_CALL_TIMEOUT" default:"15s"`
	IDColumn        string        `envconfig:"CRONOGRAMA_SHEETS_ID_COLUMN" default:"ID"`
}

func (s SheetsConfig) validate() error {
	if strings.TrimSpace(s.CredentialsJSON) == "" && strings.TrimSpace(s.CredentialsFile) == "" {
		return fmt.Errorf("either %s or %s is required", EnvSheetsCredentialsJSON, EnvSheetsCredentialsFile)
	}
	if strings.TrimSpace(s.DataTab) == "" || strings.TrimSpace(s.UsersTab) == "" {
		return fmt.Errorf("%s and %s must not be empty", EnvSheetsDataTab, EnvSheetsUsersTab)
	}
	return nil
}

// ScheduleConfig drives the schedule view: caching, ownership and filter order.
type ScheduleConfig struct {
	CacheTTL      time.Duration `envconfig:"CRONOGRAMA_SCHEDULE_CACHE_TTL" default:"300s"`
	SessionTTL    time.Duration `envconfig:"CRONOGRAMA_SCHEDULE_SESSION_TTL" default:"12h"`
	OwnerColumn   string        `envconfig:"CRONOGRAMA_SCHEDULE_OWNER_COLUMN" default:"E-mail"`
	FilterColumns []string      `envconfig:"CRONOGRAMA_SCHEDULE_FILTER_COLUMNS" default:"Referência,Setor,Descrição Meta,Responsável,Status"`
}

type PubSubConfig struct {
	ProjectID  string `envconfig:"CRONOGRAMA_GCP_PROJECT_ID"`
	AuditTopic string `envconfig:"CRONOGRAMA_PUBSUB_AUDIT_TOPIC"`
}

// Enabled reports whether mutation events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ProjectID) != "" && strings.TrimSpace(p.AuditTopic) != ""
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CRONOGRAMA_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"CRONOGRAMA_CRON_LOCK_TTL" default:"10m"`
}
