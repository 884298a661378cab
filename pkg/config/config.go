package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Pusher       PusherConfig
	FCM          FCMConfig
	Billing      BillingConfig
	Cron         CronConfig
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
	Env          string `envconfig:"ASADMINDSET_APP_ENV" required:"true"`
	Port         string `envconfig:"ASADMINDSET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ASADMINDSET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ASADMINDSET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ASADMINDSET_DB_DSN"`

	Host     string `envconfig:"ASADMINDSET_DB_HOST"`
	Port     int    `envconfig:"ASADMINDSET_DB_PORT" default:"5432"`
	User     string `envconfig:"ASADMINDSET_DB_USER"`
	Password string `envconfig:"ASADMINDSET_DB_PASSWORD"`
	Name     string `envconfig:"ASADMINDSET_DB_NAME"`
	SSLMode  string `envconfig:"ASADMINDSET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ASADMINDSET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ASADMINDSET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ASADMINDSET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ASADMINDSET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ASADMINDSET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ASADMINDSET_REDIS_ADDR"`
	Password     string        `envconfig:"ASADMINDSET_REDIS_PASSWORD"`
	DB           int           `envconfig:"ASADMINDSET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ASADMINDSET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ASADMINDSET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ASADMINDSET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ASADMINDSET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ASADMINDSET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ASADMINDSET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ASADMINDSET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ASADMINDSET_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ASADMINDSET_AUTO_MIGRATE" default:"false"`
}

type PusherConfig struct {
	AppID   string        `envconfig:"ASADMINDSET_PUSHER_APP_ID"`
	Key     string        `envconfig:"ASADMINDSET_PUSHER_KEY"`
	Secret  string        `envconfig:"ASADMINDSET_PUSHER_SECRET"`
	Cluster string        `envconfig:"ASADMINDSET_PUSHER_CLUSTER" default:"eu"`
	Timeout time.Duration `envconfig:"ASADMINDSET_PUSHER_TIMEOUT" default:"5s"`
}

// Enabled reports whether the relay is configured at all. A missing relay is
// tolerated: events are dropped with a log line instead of failing requests.
func (p PusherConfig) Enabled() bool {
	return p.AppID != "" && p.Key != "" && p.Secret != ""
}

type FCMConfig struct {
	ProjectID        string        `envconfig:"ASADMINDSET_FCM_PROJECT_ID"`
	CredentialsJSON  string        `envconfig:"ASADMINDSET_FCM_CREDENTIALS_JSON"`
	Timeout          time.Duration `envconfig:"ASADMINDSET_FCM_TIMEOUT" default:"15s"`
	MaxTokensPerUser int           `envconfig:"ASADMINDSET_FCM_MAX_TOKENS_PER_USER" default:"3"`
	NotificationIcon string        `envconfig:"ASADMINDSET_FCM_NOTIFICATION_ICON"`
	DisableDelivery  bool          `envconfig:"ASADMINDSET_FCM_DISABLE_DELIVERY" default:"false"`
}

func (f FCMConfig) Enabled() bool {
	return !f.DisableDelivery && f.ProjectID != "" && f.CredentialsJSON != ""
}

type BillingConfig struct {
	DefaultDurationDays int `envconfig:"ASADMINDSET_BILLING_DEFAULT_DURATION_DAYS" default:"30"`
	ReminderLeadDays    int `envconfig:"ASADMINDSET_BILLING_REMINDER_LEAD_DAYS" default:"3"`
	WinbackAfterDays    int `envconfig:"ASADMINDSET_BILLING_WINBACK_AFTER_DAYS" default:"7"`
	WinbackWindowDays   int `envconfig:"ASADMINDSET_BILLING_WINBACK_WINDOW_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ASADMINDSET_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"ASADMINDSET_CRON_LOCK_TTL" default:"55m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		"ASADMINDSET_DB_HOST": db.Host,
		"ASADMINDSET_DB_USER": db.User,
		"ASADMINDSET_DB_NAME": db.Name,
	}
	for _, env := range []string{"ASADMINDSET_DB_HOST", "ASADMINDSET_DB_USER", "ASADMINDSET_DB_NAME"} {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either ASADMINDSET_DB_DSN or %s are required", strings.Join(missing, ", "))
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
