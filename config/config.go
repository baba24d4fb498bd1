package config

import (
	"strconv"
	"strings"

	"lms/logger"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration
type Config struct {
	Port     string `validate:"required"`
	AppName  string `validate:"required"`
	AppURL   string `validate:"required,url"`
	Env      string `validate:"required"`
	LogLevel string

	DBDriver   string `validate:"required,oneof=postgres mysql sqlite"`
	DBDSN      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string `validate:"required"`
	DBSSLMode  string

	JWTKey                  string `validate:"required"`
	TokenTTLHours           int    `validate:"gte=1"`
	SaltRound               int    `validate:"gte=4,lte=31"`
	PasswordResetTTLMinutes int    `validate:"gte=1"`
	MaxLoginAttempts        int    `validate:"gte=1"`
	LockoutMinutes          int    `validate:"gte=1"`

	SendGridAPIKey string
	EmailSender    string
	EmailFromName  string

	PaymentAPIURL string `validate:"omitempty,url"`
	PaymentAPIKey string
	Currency      string `validate:"required,len=3"`

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	CatalogCacheSeconds int `validate:"gte=0"`

	KafkaBrokers []string
	KafkaTopic   string

	CORSOrigins          string
	PendingOrderTTLHours int `validate:"gte=1"`
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

const defaultJWTKey = "defaultSecret"

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Log.Warn().Msg(".env file not found, using system environment variables")
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		logger.Log.Fatal().Err(err).Msg("could not load environment variables")
	}

	cfg := fromKoanf(k)
	if err := Validate(cfg); err != nil {
		logger.Log.Fatal().Err(err).Msg("config validation failed")
	}

	if cfg.JWTKey == defaultJWTKey {
		logger.Log.Warn().Msg("using default JWT_SECRET_KEY, update it in your environment")
	}

	AppConfig = cfg
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func fromKoanf(k *koanf.Koanf) *Config {
	return &Config{
		Port:     getEnv(k, "port", "3000"),
		AppName:  getEnv(k, "app_name", "LMS"),
		AppURL:   strings.TrimRight(getEnv(k, "app_url", "http://localhost:3000"), "/"),
		Env:      getEnv(k, "app_env", "development"),
		LogLevel: getEnv(k, "log_level", "info"),

		DBDriver:   getEnv(k, "db_driver", "postgres"),
		DBDSN:      getEnv(k, "db_dsn", ""),
		DBHost:     getEnv(k, "db_host", "localhost"),
		DBPort:     getEnv(k, "db_port", "5432"),
		DBUser:     getEnv(k, "db_user", "postgres"),
		DBPassword: getEnv(k, "db_password", ""),
		DBName:     getEnv(k, "db_name", "lms"),
		DBSSLMode:  getEnv(k, "db_sslmode", "disable"),

		JWTKey:                  getEnv(k, "jwt_secret_key", defaultJWTKey),
		TokenTTLHours:           getEnvInt(k, "token_ttl_hours", 24),
		SaltRound:               getEnvInt(k, "salt_round", 10),
		PasswordResetTTLMinutes: getEnvInt(k, "password_reset_ttl_minutes", 60),
		MaxLoginAttempts:        getEnvInt(k, "max_login_attempts", 5),
		LockoutMinutes:          getEnvInt(k, "lockout_minutes", 15),

		SendGridAPIKey: getEnv(k, "sendgrid_api_key", ""),
		EmailSender:    getEnv(k, "email_sender", "no-reply@lms.local"),
		EmailFromName:  getEnv(k, "email_from_name", "LMS"),

		PaymentAPIURL: strings.TrimRight(getEnv(k, "payment_api_url", ""), "/"),
		PaymentAPIKey: getEnv(k, "payment_api_key", ""),
		Currency:      strings.ToUpper(getEnv(k, "currency", "USD")),

		RedisAddr:           getEnv(k, "redis_addr", ""),
		RedisPassword:       getEnv(k, "redis_password", ""),
		RedisDB:             getEnvInt(k, "redis_db", 0),
		CatalogCacheSeconds: getEnvInt(k, "catalog_cache_seconds", 300),

		KafkaBrokers: getEnvList(k, "kafka_brokers"),
		KafkaTopic:   getEnv(k, "kafka_topic", "lms_events"),

		CORSOrigins:          getEnv(k, "cors_origins", "*"),
		PendingOrderTTLHours: getEnvInt(k, "pending_order_ttl_hours", 24),
	}
}

// getEnv retrieves a value or returns a default value
func getEnv(k *koanf.Koanf, key, defaultValue string) string {
	value := strings.TrimSpace(k.String(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves a value as an integer or returns the default integer value
func getEnvInt(k *koanf.Koanf, key string, defaultValue int) int {
	value := strings.TrimSpace(k.String(key))
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return intValue
}

func getEnvList(k *koanf.Koanf, key string) []string {
	var out []string
	for _, part := range strings.Split(k.String(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test returns a configuration suitable for tests: sqlite, console mail,
// no external integrations.
func Test() *Config {
	return &Config{
		Port:                    "0",
		AppName:                 "LMS",
		AppURL:                  "http://localhost:3000",
		Env:                     "test",
		LogLevel:                "disabled",
		DBDriver:                "sqlite",
		DBName:                  ":memory:",
		JWTKey:                  "test-jwt-secret",
		TokenTTLHours:           24,
		SaltRound:               4,
		PasswordResetTTLMinutes: 60,
		MaxLoginAttempts:        3,
		LockoutMinutes:          15,
		EmailSender:             "no-reply@lms.local",
		EmailFromName:           "LMS",
		Currency:                "USD",
		CatalogCacheSeconds:     0,
		KafkaTopic:              "lms_events",
		CORSOrigins:             "*",
		PendingOrderTTLHours:    24,
	}
}
