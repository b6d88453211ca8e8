// Package config предоставляет структуры и функции для загрузки конфига трекера задач.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// EnvLocal — локальный запуск, подробные логи и текст ошибок в ответах.
	EnvLocal = "local"
	// EnvDev — стенд разработки.
	EnvDev = "dev"
	// EnvProd — прод, JSON-логи и обезличенные 500-е ответы.
	EnvProd = "prod"

	// StorageDriverPostgres — хранилище в PostgreSQL.
	StorageDriverPostgres = "postgres"
	// StorageDriverMemory — хранилище в памяти процесса (для разработки и тестов).
	StorageDriverMemory = "memory"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageDriver           string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Pagination              `yaml:"pagination"`
	Auth                    `yaml:"auth"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env-default:"5"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает список отозванных сессий.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с сессионным jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
	CookieName   string        `yaml:"cookie_name" env-default:"session_token"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// RabbitMQ структура для публикации событий задач.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange   string        `yaml:"exchange" env-default:"tasks"`
	AuditQueue string        `yaml:"audit_queue" env-default:"tasks.audit"`
}

// Pagination задаёт размер страницы по умолчанию и верхнюю границу limit.
type Pagination struct {
	DefaultLimit int `yaml:"default_limit" env-default:"10"`
	MaxLimit     int `yaml:"max_limit" env-default:"100"`
}

// Auth настройки аутентификации.
type Auth struct {
	PasswordCost int `yaml:"password_cost" env-default:"12"`
	// GenericLoginErrors скрывает разницу между "нет пользователя" и "неверный пароль".
	GenericLoginErrors bool `yaml:"generic_login_errors" env:"AUTH_GENERIC_LOGIN_ERRORS"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает YAML-конфиг, накладывает переменные окружения и проверяет результат.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.StorageConnectionString == "" {
			return errors.New("storage_connection_string is required for postgres driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage_driver %q", c.StorageDriver)
	}
	if c.JWTSecretKey == "" {
		return errors.New("jwt_secret_key is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.DefaultLimit <= 0 {
		return errors.New("pagination.default_limit must be positive")
	}
	if c.MaxLimit > 0 && c.MaxLimit < c.DefaultLimit {
		return errors.New("pagination.max_limit must not be less than default_limit")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageDriver: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"  CookieName: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"Pagination:\n"+
			"  DefaultLimit: %d\n"+
			"  MaxLimit: %d\n",
		c.Env,
		c.StorageDriver,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.CookieName,
		c.RabbitMQ.URL != "",
		c.DefaultLimit,
		c.MaxLimit,
	)
}
