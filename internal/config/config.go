package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		App      App      `yaml:"app"      env-prefix:"APP_"`
		Logger   Logger   `yaml:"logger"   env-prefix:"LOGGER_"`
		HTTP     HTTP     `yaml:"http"     env-prefix:"HTTP_"`
		Database Database `yaml:"database" env-prefix:"DB_"`
		Cache    Cache    `yaml:"cache"    env-prefix:"REDIS_"`
		Gateway  Gateway  `yaml:"gateway"  env-prefix:"GATEWAY_"`
		Env      string   `yaml:"env"      env:"ENV" env-default:"local" validate:"oneof=local dev staging prod"`
	}

	App struct {
		Name     string `yaml:"name"     env:"NAME"     env-default:"streamnotifier" validate:"required"`
		Version  string `yaml:"version"  env:"VERSION"  env-default:"dev"            validate:"required"`
		Timezone string `yaml:"timezone" env:"TIMEZONE" env-default:"UTC"            validate:"required,timezone"`
	}

	Logger struct {
		Level string `yaml:"level" env:"LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	}

	HTTP struct {
		Host              string        `yaml:"host"                env:"HOST"                env-default:"0.0.0.0" validate:"required"`
		Port              int           `yaml:"port"                env:"PORT"                env-default:"8080"    validate:"gte=1,lte=65535"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        env-default:"5s"      validate:"gte=10ms,lte=30s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       env-default:"5m"      validate:"gte=10ms,lte=30m"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"IDLE_TIMEOUT"        env-default:"60s"     validate:"gte=10ms,lte=5m"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SHUTDOWN_TIMEOUT"    env-default:"10s"     validate:"gte=10ms,lte=1m"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" env-default:"5s"      validate:"gte=10ms,lte=30s"`
	}

	Database struct {
		DSN            string        `yaml:"dsn"              env:"DSN"              validate:"required"`
		PoolMax        int           `yaml:"pool_max"         env:"POOL_MAX"         env-default:"10"                validate:"min=1,max=200"`
		ConnAttempts   int           `yaml:"conn_attempts"    env:"CONN_ATTEMPTS"    env-default:"5"                 validate:"min=1,max=50"`
		BaseRetryDelay time.Duration `yaml:"base_retry_delay" env:"BASE_RETRY_DELAY" env-default:"500ms"             validate:"gte=10ms,lte=10s"`
		RetryBackoff   float64       `yaml:"retry_backoff"    env:"RETRY_BACKOFF"    env-default:"2"                 validate:"gte=1,lte=10"`
		MigrationsPath string        `yaml:"migrations_path"  env:"MIGRATIONS_PATH"  env-default:"file://migrations" validate:"required"`
		AutoMigrate    bool          `yaml:"auto_migrate"     env:"AUTO_MIGRATE"     env-default:"false"`
	}

	// Cache is optional: an empty Addr disables the history cache.
	Cache struct {
		Addr         string        `yaml:"addr"           env:"ADDR"`
		Password     string        `yaml:"password"       env:"PASSWORD"`
		DB           int           `yaml:"db"             env:"DB"             env-default:"0"     validate:"min=0,max=15"`
		PoolSize     int           `yaml:"pool_size"      env:"POOL_SIZE"      env-default:"20"    validate:"min=1,max=100"`
		MinIdleConns int           `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS" env-default:"2"     validate:"min=0,max=100"`
		PoolTimeout  time.Duration `yaml:"pool_timeout"   env:"POOL_TIMEOUT"   env-default:"100ms" validate:"gte=10ms,lte=10s"`
		HistoryTTL   time.Duration `yaml:"history_ttl"    env:"HISTORY_TTL"    env-default:"30s"   validate:"gte=1s,lte=1h"`
	}

	Gateway struct {
		Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"30s" validate:"gte=1s,lte=2m"`
	}
)

func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func (c Cache) Enabled() bool {
	return c.Addr != ""
}

// Location resolves the configured time zone used for calendar-day math.
func (a App) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

// ResolvePath returns flagValue when set and falls back to CONFIG_PATH.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("CONFIG_PATH")
}

// LoadPath reads configPath (YAML) with environment overrides. An empty path
// reads the environment only. A .env file in the working directory is
// loaded first when present.
func LoadPath(configPath string) (*Config, error) {
	const op = "config.LoadPath"

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: load .env: %w", op, err)
	}

	var cfg Config
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: read env: %w", op, err)
		}
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
		} else if err != nil {
			return nil, fmt.Errorf("%s: checking config file: %w", op, err)
		}

		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: read config: %w", op, err)
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, ve := range validationErrs {
				msgs = append(msgs, fmt.Sprintf("%s=%v must satisfy '%s'", ve.Field(), ve.Value(), ve.Tag()))
			}
			return fmt.Errorf("config validation: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config validation: %w", err)
	}

	return nil
}
