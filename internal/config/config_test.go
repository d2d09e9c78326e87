package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-quote/internal/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, cfg.Engine.Workers)
	assert.Equal(t, "cli", cfg.Output.DefaultFormat)
	assert.Equal(t, 10, cfg.Admin.CustomsLogisticsPaymentDays)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Engine.Workers = 2
	cfg.Tables.Path = "tables.hcl"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Engine.Workers)
	assert.Equal(t, "tables.hcl", loaded.Tables.Path)
	assert.True(t, loaded.Admin.ForexRiskRate.Equal(cfg.Admin.ForexRiskRate))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TRADE_QUOTE_WORKERS", "8")
	t.Setenv("TRADE_QUOTE_TABLES_PATH", "/etc/trade-quote/tables.hcl")
	t.Setenv("TRADE_QUOTE_OUTPUT_FORMAT", "json")
	t.Setenv("TRADE_QUOTE_SHOW_PHASES", "true")
	t.Setenv("TRADE_QUOTE_LOG_LEVEL", "debug")
	t.Setenv("TRADE_QUOTE_RATE_LOAN_INTEREST_DAILY", "0.0005")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "/etc/trade-quote/tables.hcl", cfg.Tables.Path)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.True(t, cfg.Output.ShowPhases)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0.0005", cfg.Admin.LoanInterestDaily.String())
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric workers", "TRADE_QUOTE_WORKERS", "many"},
		{"negative workers", "TRADE_QUOTE_WORKERS", "-1"},
		{"bad bool", "TRADE_QUOTE_NO_COLOR", "sometimes"},
		{"bad rate", "TRADE_QUOTE_RATE_FOREX_RISK", "3%"},
		{"unknown format", "TRADE_QUOTE_OUTPUT_FORMAT", "html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := Default().ApplyEnv()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig))
		})
	}
}
