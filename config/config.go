package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Realtime RealtimeConfig
	Local    LocalConfig
	Catalog  CatalogConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
	// Backend selects where records live: "postgres" or "local".
	Backend      string
	AllowOrigins string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type StorageConfig struct {
	// Driver is "supabase", "oss" or "disk". Empty picks disk for the local
	// backend and supabase otherwise.
	Driver        string
	SupabaseURL   string
	ServiceKey    string
	Bucket        string
	MaxImageWidth int
	Timeout       int
	OSSEndpoint   string
	OSSAccessKey  string
	OSSSecretKey  string
	OSSPublicURL  string
}

type RealtimeConfig struct {
	// Driver is one of "postgres", "redis", "kafka" or "none".
	Driver       string
	Channel      string
	MinReconnect int
	MaxReconnect int
	RedisPrefix  string
	// ResyncSchedule is a cron expression for periodic full refetches; empty disables.
	ResyncSchedule string
	ResyncTimeout  int
}

type LocalConfig struct {
	// Store is "file" or "redis".
	Store  string
	Dir    string
	NodeID int64
}

type CatalogConfig struct {
	// DeletePolicy is "orphan" or "block".
	DeletePolicy string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:       getEnv("APP_ENV", "dev"),
			HTTPPort:     getEnv("HTTP_PORT", ":8084"),
			Backend:      getEnv("MENU_BACKEND", "postgres"),
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_menu"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "your-secret-key-change-this-in-prod"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_MENU_CHANGES", "menu.changes"),
			GroupID: getEnv("KAFKA_GROUP_MENU", ""),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", ""),
			SupabaseURL:   getEnv("SUPABASE_URL", "http://localhost:54321"),
			ServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:        getEnv("STORAGE_BUCKET", "menu-assets"),
			MaxImageWidth: getEnvInt("IMAGE_MAX_WIDTH", 1600),
			Timeout:       getEnvInt("STORAGE_TIMEOUT", 30),
			OSSEndpoint:   getEnv("ALI_OSS_ENDPOINT", ""),
			OSSAccessKey:  getEnv("ALI_OSS_ACCESS_KEY", ""),
			OSSSecretKey:  getEnv("ALI_OSS_SECRET_KEY", ""),
			OSSPublicURL:  getEnv("ALI_OSS_PUBLIC_URL", ""),
		},
		Realtime: RealtimeConfig{
			Driver:         getEnv("REALTIME_DRIVER", "postgres"),
			Channel:        getEnv("REALTIME_CHANNEL", "menu_changes"),
			MinReconnect:   getEnvInt("REALTIME_MIN_RECONNECT", 10),
			MaxReconnect:   getEnvInt("REALTIME_MAX_RECONNECT", 60),
			RedisPrefix:    getEnv("REALTIME_REDIS_PREFIX", "menu:changes:"),
			ResyncSchedule: getEnv("REALTIME_RESYNC_SCHEDULE", "@every 10m"),
			ResyncTimeout:  getEnvInt("REALTIME_RESYNC_TIMEOUT", 60),
		},
		Local: LocalConfig{
			Store:  getEnv("LOCAL_STORE", "file"),
			Dir:    getEnv("LOCAL_DIR", "./data"),
			NodeID: int64(getEnvInt("LOCAL_NODE_ID", 1)),
		},
		Catalog: CatalogConfig{
			DeletePolicy: getEnv("CATALOG_DELETE_POLICY", "orphan"),
		},
	}
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

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
