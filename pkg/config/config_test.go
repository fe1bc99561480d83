package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/domain/alerting"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 3001, cfg.HTTP.Port)
	assert.Equal(t, 14, cfg.Billing.TrialDays)
	assert.True(t, cfg.Alerts.Dedupe)
	assert.Equal(t, time.Hour, cfg.Ingestion.PollInterval)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, alerting.DefaultThresholds(), cfg.Alerts.Thresholds)
	assert.False(t, cfg.DB.ForceIPv4)
	assert.Empty(t, cfg.DB.Resolver)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("HTTP_PORT", "8080")
	v.Set("ALERTS_DEDUPE", "false")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("INGESTION_POLL_INTERVAL", "15m")
	v.Set("DB_FORCE_IPV4", "true")
	v.Set("DB_RESOLVER", "10.0.0.2:53")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.False(t, cfg.Alerts.Dedupe)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Ingestion.PollInterval)
	assert.True(t, cfg.DB.ForceIPv4)
	assert.Equal(t, "10.0.0.2:53", cfg.DB.Resolver)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "fl", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/fl?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}

func TestLoadThresholds_Parcial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  low_stock_max: \"20\"\n  fwrd_min_plates: 3\n"), 0o600))

	th, err := LoadThresholds(path)
	require.NoError(t, err)
	assert.True(t, th.LowStockMax.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 3, th.FWRDMinPlates)
	assert.Equal(t, alerting.DefaultThresholds().LowStockLimit, th.LowStockLimit)
}

func TestLoadThresholds_Invalido(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  low_stock_limit: -1\n"), 0o600))
	_, err := LoadThresholds(path)
	assert.Error(t, err)
}
