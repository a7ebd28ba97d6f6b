package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Catalog  CatalogConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	AppEnv    string
	Port      string
	BodyLimit int
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

// StorageConfig points at the hosted object storage (Supabase storage API).
type StorageConfig struct {
	URL        string
	ServiceKey string
	Bucket     string
	Timeout    time.Duration
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	CategoryTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type CatalogConfig struct {
	DefaultPageSize   int
	MaxPageSize       int
	LowStockThreshold int
	RollbackAttempts  int
	RollbackBackoff   time.Duration
}

// AdminConfig is the operator seeded on first start.
type AdminConfig struct {
	Email    string
	Password string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:    getEnv("APP_ENV", "development"),
			Port:      getEnv("PORT", "3000"),
			BodyLimit: getEnvInt("BODY_LIMIT_MB", 10) * 1024 * 1024,
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "catalog"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			TTL:       getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			URL:        strings.TrimRight(getEnv("STORAGE_URL", "http://localhost:54321"), "/"),
			ServiceKey: getEnv("STORAGE_SERVICE_KEY", ""),
			Bucket:     getEnv("STORAGE_BUCKET", "products"),
			Timeout:    getEnvDuration("STORAGE_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			CategoryTTL: getEnvDuration("REDIS_CATEGORY_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "catalog.events"),
		},
		Catalog: CatalogConfig{
			DefaultPageSize:   getEnvInt("CATALOG_PAGE_SIZE", 12),
			MaxPageSize:       getEnvInt("CATALOG_MAX_PAGE_SIZE", 100),
			LowStockThreshold: getEnvInt("CATALOG_LOW_STOCK", 10),
			RollbackAttempts:  getEnvInt("CATALOG_ROLLBACK_ATTEMPTS", 3),
			RollbackBackoff:   getEnvDuration("CATALOG_ROLLBACK_BACKOFF", 200*time.Millisecond),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
