package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config is the application settings record. It is constructed exactly once
// at process start (see Load) and treated as immutable afterwards; dependents
// receive it by reference instead of re-reading the environment.
type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	SecretKey string `env:"SECRET_KEY,required"`

	Postgres      PostgresConfig
	Redis         RedisConfig
	Research      ResearchConfig
	API           APIConfig
	Observability ObservabilityConfig
}

// PostgresConfig configures the relational store connection pool.
// PoolSize and MaxOverflow are independent limits: the pool keeps PoolSize
// connections warm and allows up to PoolSize+MaxOverflow open at once.
type PostgresConfig struct {
	User     string `env:"POSTGRES_USER,required"`
	Password string `env:"POSTGRES_PASSWORD,required"`
	DB       string `env:"POSTGRES_DB,required"`
	Host     string `env:"POSTGRES_HOST" envDefault:"postgres"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	PoolSize        int           `env:"POSTGRES_POOL_SIZE" envDefault:"10"`
	MaxOverflow     int           `env:"POSTGRES_MAX_OVERFLOW" envDefault:"20"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`

	// SessionTimeout bounds a whole unit of work, connection acquisition
	// included. Zero means block until the caller's context is done.
	SessionTimeout time.Duration `env:"POSTGRES_SESSION_TIMEOUT" envDefault:"0"`
}

// RedisConfig configures the cache endpoint.
type RedisConfig struct {
	Host string `env:"REDIS_HOST" envDefault:"redis"`
	Port int    `env:"REDIS_PORT" envDefault:"6379"`
}

// ResearchConfig carries credentials reserved for the planned research
// components. They are required at startup but not consumed by the
// bootstrap itself.
type ResearchConfig struct {
	OpenAIAPIKey       string `env:"OPENAI_API_KEY,required"`
	LangChainAPIKey    string `env:"LANGCHAIN_API_KEY,required"`
	LangChainTracingV2 bool   `env:"LANGCHAIN_TRACING_V2" envDefault:"true"`
	LangChainProject   string `env:"LANGCHAIN_PROJECT" envDefault:"stock-research-assistant"`
	CohereAPIKey       string `env:"COHERE_API_KEY,required"`
	NewsAPIKey         string `env:"NEWS_API_KEY,required"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Port int `env:"API_PORT" envDefault:"8000"`
}

// ObservabilityConfig configures logging, metrics and operational health.
type ObservabilityConfig struct {
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPort         int           `env:"METRICS_PORT" envDefault:"9090"`
	HealthCheckPort     int           `env:"HEALTH_CHECK_PORT" envDefault:"8081"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// DatabaseURL derives the postgres connection string from the constituent
// fields. It is never stored, so it cannot disagree with its sources.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:     net.JoinHostPort(c.Postgres.Host, strconv.Itoa(c.Postgres.Port)),
		Path:     "/" + c.Postgres.DB,
		RawQuery: "sslmode=" + c.Postgres.SSLMode,
	}
	return u.String()
}

// RedisURL derives the cache connection string from the constituent fields.
func (c *Config) RedisURL() string {
	return fmt.Sprintf("redis://%s", net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port)))
}

// IsDevelopment reports whether the process runs in the development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
