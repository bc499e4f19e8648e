package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Risk: RiskConfig{
			DefaultWindowDays:        30,
			DefaultLowStockThreshold: 5,
			WidgetFarmLimit:          5,
			Timezone:                 "UTC",
			StrictFilters:            true,
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative window", func(c *Config) { c.Risk.DefaultWindowDays = -1 }},
		{"negative threshold", func(c *Config) { c.Risk.DefaultLowStockThreshold = -0.5 }},
		{"negative widget limit", func(c *Config) { c.Risk.WidgetFarmLimit = -2 }},
		{"unknown timezone", func(c *Config) { c.Risk.Timezone = "Mars/Olympus_Mons" }},
		{"storage without bucket", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Bucket = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestRiskLocation(t *testing.T) {
	loc, err := RiskConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = RiskConfig{Timezone: "Asia/Jakarta"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "farm", Password: "secret", DBName: "farmrisk", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=farm password=secret dbname=farmrisk sslmode=disable", d.DSN())
}
