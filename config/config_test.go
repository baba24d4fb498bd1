package config

import (
	"strings"
	"testing"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestConfigIsValid(t *testing.T) {
	assert.NoError(t, Validate(Test()))
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }},
		{"short currency", func(c *Config) { c.Currency = "US" }},
		{"weak salt", func(c *Config) { c.SaltRound = 2 }},
		{"bad app url", func(c *Config) { c.AppURL = "not a url" }},
		{"no jwt key", func(c *Config) { c.JWTKey = "" }},
		{"zero lockout attempts", func(c *Config) { c.MaxLoginAttempts = 0 }},
		{"bad payment url", func(c *Config) { c.PaymentAPIURL = "nope" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Test()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestFromKoanf(t *testing.T) {
	for key, value := range map[string]string{
		"LMS_TEST_PORT":               "8080",
		"LMS_TEST_APP_URL":            "https://lms.example.com/",
		"LMS_TEST_CURRENCY":           "eur",
		"LMS_TEST_MAX_LOGIN_ATTEMPTS": "7",
		"LMS_TEST_SALT_ROUND":         "abc",
		"LMS_TEST_KAFKA_BROKERS":      "k1:9092, k2:9092,,",
		"LMS_TEST_PAYMENT_API_URL":    "https://pay.example.com/v1/",
	} {
		t.Setenv(key, value)
	}

	k := koanf.New(".")
	require.NoError(t, k.Load(env.Provider("LMS_TEST_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LMS_TEST_"))
	}), nil))

	cfg := fromKoanf(k)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://lms.example.com", cfg.AppURL)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, 7, cfg.MaxLoginAttempts)
	assert.Equal(t, 10, cfg.SaltRound, "invalid integers fall back to the default")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://pay.example.com/v1", cfg.PaymentAPIURL)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 300, cfg.CatalogCacheSeconds)
	assert.NoError(t, Validate(cfg))
}
