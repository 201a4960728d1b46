package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// MongoDB holds media blobs (GridFS)
	MongoDB MongoDBConfig `json:"mongodb"`

	Redis RedisConfig `json:"redis"`

	Auth AuthConfig `json:"auth"`

	// Notification Configuration
	Notification NotificationConfig `json:"notification"`

	Reconciler ReconcilerConfig `json:"reconciler"`

	Upload UploadConfig `json:"upload"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host         string `json:"host"`
	APIPort      string `json:"api_port"`
	RPCPort      string `json:"rpc_port"`
	MediaPort    string `json:"media_port"`
	MediaBaseURL string `json:"media_base_url"`
	RPCTarget    string `json:"rpc_target"` // address clients dial for the platform service
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	Environment  string `json:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver       string `json:"driver"` // mysql or sqlite
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	SQLitePath   string `json:"sqlite_path"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type MongoDBConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
	Bucket   string `json:"bucket"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Channel  string `json:"channel"`
	Enabled  bool   `json:"enabled"`
}

type AuthConfig struct {
	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"token_ttl"`
	Issuer    string        `json:"issuer"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	Workers           int  `json:"workers"`             // Number of worker goroutines
	ChannelBufferSize int  `json:"channel_buffer_size"` // Channel buffer size
	Enabled           bool `json:"enabled"`
}

// ReconcilerConfig controls how a half-applied toggle is undone.
type ReconcilerConfig struct {
	CompensationAttempts int           `json:"compensation_attempts"`
	CompensationBackoff  time.Duration `json:"compensation_backoff"`
	RemoteTimeout        time.Duration `json:"remote_timeout"`
}

type UploadConfig struct {
	MaxBytes int64 `json:"max_bytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level"` // debug, info, warn, error
	File  string `json:"file"`
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			APIPort:      getEnv("API_PORT", "8000"),
			RPCPort:      getEnv("RPC_PORT", "7001"),
			MediaPort:    getEnv("MEDIA_SERVER_PORT", "8080"),
			RPCTarget:    getEnv("RPC_TARGET", ""),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			Host:         getEnv("MYSQL_HOST", "localhost"),
			Port:         getEnv("MYSQL_PORT", "3306"),
			Username:     getEnv("MYSQL_USERNAME", "clipshare"),
			Password:     getEnv("MYSQL_PASSWORD", "clipshare123"),
			DatabaseName: getEnv("MYSQL_DATABASE", "clipshare"),
			SQLitePath:   getEnv("SQLITE_PATH", "clipshare.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoDBConfig{
			Host:     getEnv("MONGO_HOST", "localhost"),
			Port:     getEnv("MONGO_PORT", "27017"),
			Username: getEnv("MONGO_USERNAME", "admin"),
			Password: getEnv("MONGO_PASSWORD", "admin123"),
			Database: getEnv("MONGO_DATABASE", "clipshare"),
			Bucket:   getEnv("MONGO_BUCKET", "media_files"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Channel:  getEnv("REDIS_NOTIFICATION_CHANNEL", "clipshare:notifications"),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me"),
			TokenTTL:  time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "clipshare"),
		},
		Notification: NotificationConfig{
			Workers:           getEnvAsInt("NOTIFICATION_WORKERS", 5),
			ChannelBufferSize: getEnvAsInt("NOTIFICATION_BUFFER", 1000),
			Enabled:           getEnvAsBool("NOTIFICATION_ENABLED", true),
		},
		Reconciler: ReconcilerConfig{
			CompensationAttempts: getEnvAsInt("TOGGLE_COMPENSATION_ATTEMPTS", 3),
			CompensationBackoff:  time.Duration(getEnvAsInt("TOGGLE_COMPENSATION_BACKOFF_MS", 200)) * time.Millisecond,
			RemoteTimeout:        time.Duration(getEnvAsInt("TOGGLE_REMOTE_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
		Upload: UploadConfig{
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "clipshare.log"),
		},
	}

	if cfg.Server.RPCTarget == "" {
		cfg.Server.RPCTarget = fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.RPCPort)
	}
	cfg.Server.MediaBaseURL = getEnv("MEDIA_BASE_URL",
		fmt.Sprintf("http://%s:%s/media", cfg.Server.Host, cfg.Server.MediaPort))

	return cfg
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username == "" || cfg.MongoDB.Password == "" {
		return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
		cfg.MongoDB.Username,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.Database,
	)
}

func (cfg *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
