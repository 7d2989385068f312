package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/redmonkez12/identity-api/internal/password"
	"github.com/redmonkez12/identity-api/internal/token"
)

// Token formats accepted in TOKEN_FORMAT
const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Identity IdentityConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ChannelBinding  string // "require" for Neon DB, empty for local
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// HS256 secret for jwt, or the 32-byte v4.local key for paseto
	TokenSecret    []byte
	TokenFormat    string
	TokenValidity  time.Duration
	PasswordHasher string
	BcryptCost     int
}

type IdentityConfig struct {
	RedactPasswordHash     bool
	EnforceRecordOwnership bool
	UserCacheTTL           time.Duration
}

// Load reads configuration from environment variables, loading a .env
// file first when one exists
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "identity"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			ChannelBinding:  getEnv("DB_CHANNEL_BINDING", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     getBoolEnv("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenSecret:    []byte(getEnv("TOKEN_SECRET", "")),
			TokenFormat:    strings.ToLower(getEnv("TOKEN_FORMAT", TokenFormatJWT)),
			TokenValidity:  getDurationEnv("TOKEN_TTL", token.DefaultValidity),
			PasswordHasher: strings.ToLower(getEnv("PASSWORD_HASHER", password.SchemeBcrypt)),
			BcryptCost:     getIntEnv("BCRYPT_COST", 0),
		},
		Identity: IdentityConfig{
			RedactPasswordHash:     getBoolEnv("REDACT_PASSWORD_HASH", false),
			EnforceRecordOwnership: getBoolEnv("ENFORCE_RECORD_OWNERSHIP", false),
			UserCacheTTL:           getDurationEnv("USER_CACHE_TTL", 5*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.TokenFormat {
	case TokenFormatJWT:
		if len(c.Auth.TokenSecret) < token.MinJWTSecretBytes {
			return fmt.Errorf("TOKEN_SECRET must be at least %d bytes for jwt, got %d", token.MinJWTSecretBytes, len(c.Auth.TokenSecret))
		}
	case TokenFormatPaseto:
		if len(c.Auth.TokenSecret) != token.PasetoKeyBytes {
			return fmt.Errorf("TOKEN_SECRET must be exactly %d bytes for paseto, got %d", token.PasetoKeyBytes, len(c.Auth.TokenSecret))
		}
	default:
		return fmt.Errorf("TOKEN_FORMAT must be %q or %q, got %q", TokenFormatJWT, TokenFormatPaseto, c.Auth.TokenFormat)
	}

	switch c.Auth.PasswordHasher {
	case password.SchemeBcrypt, password.SchemeArgon2id:
	default:
		return fmt.Errorf("PASSWORD_HASHER must be %q or %q, got %q", password.SchemeBcrypt, password.SchemeArgon2id, c.Auth.PasswordHasher)
	}

	if c.Auth.TokenValidity <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv reads a whole number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
