package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Драйверы хранилища бронирований
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	// ErrInvalidConfig возвращается, если конфигурация не проходит проверку
	ErrInvalidConfig = errors.New("config: invalid configuration")

	supportedAlgorithms = map[string]struct{}{"HS256": {}, "HS384": {}, "HS512": {}}
)

type Config struct {
	Server              ServerConfig         `toml:"server"`
	Database            DatabaseConfig       `toml:"database"`
	Logs                LogsConfig           `toml:"logs"`
	Metrics             MetricsConfig        `toml:"metrics"`
	Auth                AuthConfig           `toml:"auth"`
	Saga                SagaConfig           `toml:"saga"`
	InventoryService    ServiceClientConfig  `toml:"inventory_service"`
	PricingService      ServiceClientConfig  `toml:"pricing_service"`
	ConfirmationService ServiceClientConfig  `toml:"confirmation_service"`
	PaymentService      ServiceClientConfig  `toml:"payment_service"`
	Kafka               KafkaConfig          `toml:"kafka"`
	Redis               RedisConfig          `toml:"redis"`
	Reconciliation      ReconciliationConfig `toml:"reconciliation"`
	Events              EventsConfig         `toml:"events"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения к postgres
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type AuthConfig struct {
	JWTSecret               string `toml:"jwt_secret"`
	JWTAlgorithm            string `toml:"jwt_algorithm"`
	Issuer                  string `toml:"issuer"`
	SessionTokenTTLMinutes  int    `toml:"session_token_ttl_minutes"`
	InternalTokenTTLMinutes int    `toml:"internal_token_ttl_minutes"`
}

// SessionTTL время жизни внешнего сессионного токена
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTokenTTLMinutes) * time.Minute
}

// InternalTTL время жизни внутреннего токена для вызовов между сервисами
func (a AuthConfig) InternalTTL() time.Duration {
	return time.Duration(a.InternalTokenTTLMinutes) * time.Minute
}

type SagaConfig struct {
	StepTimeoutMs   int `toml:"step_timeout_ms"`
	ConflictRetries int `toml:"conflict_retries"`
	GuardTTLSeconds int `toml:"guard_ttl_seconds"`
}

func (s SagaConfig) StepTimeout() time.Duration {
	return time.Duration(s.StepTimeoutMs) * time.Millisecond
}

func (s SagaConfig) GuardTTL() time.Duration {
	return time.Duration(s.GuardTTLSeconds) * time.Second
}

type ServiceClientConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

func (s ServiceClientConfig) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

type KafkaConfig struct {
	Enabled  bool     `toml:"enabled"`
	Brokers  []string `toml:"brokers"`
	ClientID string   `toml:"client_id"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type ReconciliationConfig struct {
	Enabled           bool `toml:"enabled"`
	IntervalSeconds   int  `toml:"interval_seconds"`
	LockMaxAgeSeconds int  `toml:"lock_max_age_seconds"`
}

func (r ReconciliationConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

func (r ReconciliationConfig) LockMaxAge() time.Duration {
	return time.Duration(r.LockMaxAgeSeconds) * time.Second
}

type EventsConfig struct {
	BufferSize     int `toml:"buffer_size"`
	Workers        int `toml:"workers"`
	MaxAttempts    int `toml:"max_attempts"`
	RetryBackoffMs int `toml:"retry_backoff_ms"`
	RedeliverMs    int `toml:"redeliver_ms"`
}

func (e EventsConfig) RetryBackoff() time.Duration {
	return time.Duration(e.RetryBackoffMs) * time.Millisecond
}

// RedeliverInterval период повторной доставки событий из spool
func (e EventsConfig) RedeliverInterval() time.Duration {
	return time.Duration(e.RedeliverMs) * time.Millisecond
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию
// и переменные окружения JWT_SECRET_KEY, DB_PASSWORD
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация для локального запуска без внешней инфраструктуры
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "reservationservice",
		},
		Auth: AuthConfig{
			JWTAlgorithm:            "HS256",
			Issuer:                  "reservationservice",
			SessionTokenTTLMinutes:  30,
			InternalTokenTTLMinutes: 5,
		},
		Saga: SagaConfig{
			StepTimeoutMs:   5000,
			ConflictRetries: 3,
			GuardTTLSeconds: 120,
		},
		Kafka: KafkaConfig{ClientID: "reservationservice"},
		Reconciliation: ReconciliationConfig{
			IntervalSeconds:   60,
			LockMaxAgeSeconds: 30,
		},
		Events: EventsConfig{
			BufferSize:     256,
			Workers:        2,
			MaxAttempts:    5,
			RetryBackoffMs: 200,
			RedeliverMs:    1000,
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

// Validate проверяет конфигурацию до старта процесса
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("%w: auth.jwt_secret is empty (set it in the file or JWT_SECRET_KEY)", ErrInvalidConfig)
	}
	if _, ok := supportedAlgorithms[c.Auth.JWTAlgorithm]; !ok {
		return fmt.Errorf("%w: auth.jwt_algorithm %q is not supported", ErrInvalidConfig, c.Auth.JWTAlgorithm)
	}
	if c.Auth.InternalTokenTTLMinutes <= 0 || c.Auth.SessionTokenTTLMinutes <= 0 {
		return fmt.Errorf("%w: token ttl must be positive", ErrInvalidConfig)
	}
	if c.Auth.InternalTokenTTLMinutes >= c.Auth.SessionTokenTTLMinutes {
		return fmt.Errorf("%w: internal_token_ttl_minutes (%d) must be shorter than session_token_ttl_minutes (%d)",
			ErrInvalidConfig, c.Auth.InternalTokenTTLMinutes, c.Auth.SessionTokenTTLMinutes)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("%w: database.driver %q is not supported", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Saga.StepTimeoutMs <= 0 {
		return fmt.Errorf("%w: saga.step_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.Saga.ConflictRetries < 0 {
		return fmt.Errorf("%w: saga.conflict_retries must not be negative", ErrInvalidConfig)
	}

	for name, svc := range map[string]ServiceClientConfig{
		"inventory_service":    c.InventoryService,
		"pricing_service":      c.PricingService,
		"confirmation_service": c.ConfirmationService,
		"payment_service":      c.PaymentService,
	} {
		if svc.URL == "" {
			return fmt.Errorf("%w: %s.url is empty", ErrInvalidConfig, name)
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers is empty", ErrInvalidConfig)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is empty", ErrInvalidConfig)
	}
	return nil
}
