package cfg

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// AmadeusConfig holds the pricing provider credentials. There is no default
// for the client id or secret: both must come from the environment.
type AmadeusConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	MaxRPS       int
}

type ScannerConfig struct {
	Interval    time.Duration
	Concurrency int
	Adults      int
}

type ObservabilityConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

type IdentityConfig struct {
	IssuerURL string
	ClientID  string
}

type Config struct {
	AppEnv          string
	AppPort         string
	Postgres        PostgresConfig
	RedisConfig     RedisConfig
	Amadeus         AmadeusConfig
	Scanner         ScannerConfig
	Observability   ObservabilityConfig
	Identity        IdentityConfig
	CacheTTLMinutes int
	SnowflakeNodeID int64
	LabelLocale     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present. Every missing or malformed key is
// reported in a single joined error.
func Load() (*Config, error) {
	var errs []error

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	appEnv := envOr("APP_ENV", "development")

	config := &Config{
		AppEnv:   appEnv,
		AppPort:  envOr("APP_PORT", "8080"),
		Postgres: postgresFromEnv(&errs),
		RedisConfig: RedisConfig{
			Host:     envOr("REDIS_HOST", ""),
			Port:     envOr("REDIS_PORT", "6379"),
			Password: envOr("REDIS_PASSWORD", ""),
		},
		Amadeus: AmadeusConfig{
			BaseURL:      envOr("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
			ClientID:     mustEnv("AMADEUS_CLIENT_ID", &errs),
			ClientSecret: mustEnv("AMADEUS_CLIENT_SECRET", &errs),
			Timeout:      time.Duration(intEnv("PROVIDER_TIMEOUT_SECONDS", 10, &errs)) * time.Second,
			MaxRPS:       intEnv("AMADEUS_MAX_RPS", 10, &errs),
		},
		Scanner: ScannerConfig{
			Interval:    time.Duration(intEnv("SCAN_INTERVAL_MINUTES", 60, &errs)) * time.Minute,
			Concurrency: intEnv("SCAN_CONCURRENCY", 4, &errs),
			Adults:      intEnv("SCAN_ADULTS", 1, &errs),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  envOr("OTEL_SERVICE_NAME", "farewatch"),
			Environment:  appEnv,
		},
		Identity: IdentityConfig{
			IssuerURL: envOr("OIDC_ISSUER_URL", ""),
			ClientID:  envOr("OIDC_CLIENT_ID", ""),
		},
		CacheTTLMinutes: intEnv("CACHE_TTL_MINUTES", 15, &errs),
		SnowflakeNodeID: int64(intEnv("SNOWFLAKE_NODE_ID", 1, &errs)),
		LabelLocale:     envOr("FILTER_LABEL_LOCALE", "pt-BR"),
	}

	if config.Scanner.Interval <= 0 {
		errs = append(errs, errors.New("invalid env: SCAN_INTERVAL_MINUTES must be at least 1"))
	}
	if config.Scanner.Concurrency < 1 {
		errs = append(errs, errors.New("invalid env: SCAN_CONCURRENCY must be at least 1"))
	}
	if config.Identity.IssuerURL != "" && config.Identity.ClientID == "" {
		errs = append(errs, errors.New("missing env: OIDC_CLIENT_ID (required when OIDC_ISSUER_URL is set)"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return config, nil
}

// LoadDatabase reads only APP_ENV and the Postgres keys. Schema migrations
// use it so they can run without provider credentials.
func LoadDatabase() (*Config, error) {
	var errs []error

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	config := &Config{
		AppEnv:   envOr("APP_ENV", "development"),
		Postgres: postgresFromEnv(&errs),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return config, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.New("failed load cfg: " + err.Error())
	}
	return nil
}

func postgresFromEnv(errs *[]error) PostgresConfig {
	return PostgresConfig{
		Host:     mustEnv("POSTGRES_HOST", errs),
		Port:     envOr("POSTGRES_PORT", "5432"),
		User:     mustEnv("POSTGRES_USER", errs),
		Password: mustEnv("POSTGRES_PASSWORD", errs),
		DBName:   mustEnv("POSTGRES_DB", errs),
		SSLMode:  envOr("POSTGRES_SSLMODE", "disable"),
	}
}

// RedisAddr is empty when no Redis host is configured.
func (c *Config) RedisAddr() string {
	if c.RedisConfig.Host == "" {
		return ""
	}
	return c.RedisConfig.Host + ":" + c.RedisConfig.Port
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int, errs *[]error) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
		return fallback
	}
	return n
}
