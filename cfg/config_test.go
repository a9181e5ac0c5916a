package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "fare")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "farewatch")
	t.Setenv("AMADEUS_CLIENT_ID", "client")
	t.Setenv("AMADEUS_CLIENT_SECRET", "shh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", config.AppEnv)
	assert.Equal(t, "8080", config.AppPort)
	assert.Equal(t, "https://test.api.amadeus.com", config.Amadeus.BaseURL)
	assert.Equal(t, 10*time.Second, config.Amadeus.Timeout)
	assert.Equal(t, 10, config.Amadeus.MaxRPS)
	assert.Equal(t, time.Hour, config.Scanner.Interval)
	assert.Equal(t, 4, config.Scanner.Concurrency)
	assert.Equal(t, 15, config.CacheTTLMinutes)
	assert.Equal(t, "pt-BR", config.LabelLocale)
	assert.Empty(t, config.RedisAddr())
}

func TestLoad_ProviderCredentialsHaveNoFallback(t *testing.T) {
	setRequired(t)
	t.Setenv("AMADEUS_CLIENT_ID", "")
	t.Setenv("AMADEUS_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing env: AMADEUS_CLIENT_ID")
	assert.Contains(t, err.Error(), "missing env: AMADEUS_CLIENT_SECRET")
}

func TestLoad_BadInteger(t *testing.T) {
	setRequired(t)
	t.Setenv("SCAN_CONCURRENCY", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversion failed env: SCAN_CONCURRENCY")
}

func TestLoad_NonPositiveScanInterval(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		t.Run(v, func(t *testing.T) {
			setRequired(t)
			t.Setenv("SCAN_INTERVAL_MINUTES", v)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "SCAN_INTERVAL_MINUTES must be at least 1")
		})
	}
}

func TestLoad_IssuerNeedsClientID(t *testing.T) {
	setRequired(t)
	t.Setenv("OIDC_ISSUER_URL", "https://accounts.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OIDC_CLIENT_ID")
}

func TestRedisAddr(t *testing.T) {
	c := &Config{RedisConfig: RedisConfig{Host: "cache", Port: "6380"}}
	assert.Equal(t, "cache:6380", c.RedisAddr())
}

func TestLoadDatabase_IgnoresProviderCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("AMADEUS_CLIENT_ID", "")
	t.Setenv("AMADEUS_CLIENT_SECRET", "")
	t.Setenv("POSTGRES_PORT", "6543")

	config, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "localhost", config.Postgres.Host)
	assert.Equal(t, "6543", config.Postgres.Port)
	assert.Equal(t, "development", config.AppEnv)
}

func TestLoadDatabase_MissingPostgres(t *testing.T) {
	setRequired(t)
	t.Setenv("POSTGRES_HOST", "")

	_, err := LoadDatabase()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing env: POSTGRES_HOST")
}
