// Package config provides configuration management.
// A JSON file supplies the base configuration; TRADE_QUOTE_* environment
// variables (optionally from a .env file) override it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
	"trade-quote/internal/logging"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "TRADE_QUOTE_"

// DefaultWorkers is the default per-product worker pool size
const DefaultWorkers = 4

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Engine contains calculation settings
	Engine EngineConfig `json:"engine"`

	// Tables locates the derived-variable lookup tables
	Tables TablesConfig `json:"tables"`

	// Admin holds organisation-wide rates used when a quote file carries none
	Admin types.AdminSettings `json:"admin"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// EngineConfig contains calculation settings
type EngineConfig struct {
	// Workers is the per-product worker pool size
	Workers int `json:"workers"`
}

// TablesConfig locates lookup tables
type TablesConfig struct {
	// Path is an HCL table file; empty selects the embedded tables
	Path string `json:"path"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// ShowPhases prints every stage of every product
	ShowPhases bool `json:"show_phases"`

	// NoColor disables ANSI colors
	NoColor bool `json:"no_color"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Engine: EngineConfig{
			Workers: DefaultWorkers,
		},
		Admin: types.AdminSettings{
			ForexRiskRate:               decimal.RequireFromString("0.03"),
			FinCommissionRate:           decimal.RequireFromString("0.02"),
			LoanInterestAnnual:          decimal.RequireFromString("0.25"),
			CustomsLogisticsPaymentDays: 10,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath is ~/.trade-quote/config.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".trade-quote", "config.json")
}

// Load loads configuration from a file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, errors.Config(fmt.Sprintf("read config %s", path), err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Config(fmt.Sprintf("parse config %s", path), err)
	}

	return config, nil
}

// LoadWithEnv loads the file, then applies .env and environment overrides
func LoadWithEnv(path string) (*Config, error) {
	config, err := Load(path)
	if err != nil {
		return nil, err
	}
	_ = godotenv.Load()
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overlays TRADE_QUOTE_* environment variables
func (c *Config) ApplyEnv() error {
	k := koanf.New(".")
	provider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(provider, nil); err != nil {
		return errors.Config("load environment", err)
	}

	o := overlay{k: k}
	o.setInt("workers", &c.Engine.Workers)
	o.setString("tables_path", &c.Tables.Path)
	o.setString("output_format", &c.Output.DefaultFormat)
	o.setBool("show_phases", &c.Output.ShowPhases)
	o.setBool("no_color", &c.Output.NoColor)
	o.setString("log_level", &c.Logging.Level)
	o.setString("log_format", &c.Logging.Format)
	o.setString("log_output", &c.Logging.Output)
	o.setDecimal("rate_forex_risk", &c.Admin.ForexRiskRate)
	o.setDecimal("rate_fin_comm", &c.Admin.FinCommissionRate)
	o.setDecimal("rate_loan_interest_daily", &c.Admin.LoanInterestDaily)
	o.setDecimal("rate_loan_interest_annual", &c.Admin.LoanInterestAnnual)
	o.setInt("customs_logistics_pmt_due", &c.Admin.CustomsLogisticsPaymentDays)

	if o.err != nil {
		return o.err
	}
	return c.Validate()
}

// overlay copies present keys into config fields, keeping the first parse error
type overlay struct {
	k   *koanf.Koanf
	err error
}

func (o *overlay) raw(key string) (string, bool) {
	if !o.k.Exists(key) {
		return "", false
	}
	return strings.TrimSpace(o.k.String(key)), true
}

func (o *overlay) fail(key, value string, cause error) {
	if o.err == nil {
		o.err = errors.Config(fmt.Sprintf("invalid %s%s=%q", EnvPrefix, strings.ToUpper(key), value), cause)
	}
}

func (o *overlay) setString(key string, dst *string) {
	if v, ok := o.raw(key); ok {
		*dst = v
	}
}

func (o *overlay) setInt(key string, dst *int) {
	v, ok := o.raw(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		o.fail(key, v, err)
		return
	}
	*dst = n
}

func (o *overlay) setBool(key string, dst *bool) {
	v, ok := o.raw(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		o.fail(key, v, err)
		return
	}
	*dst = b
}

func (o *overlay) setDecimal(key string, dst *decimal.Decimal) {
	v, ok := o.raw(key)
	if !ok {
		return
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		o.fail(key, v, err)
		return
	}
	*dst = d
}

// Validate checks settings that cannot be corrected at use
func (c *Config) Validate() error {
	if c.Engine.Workers < 0 {
		return errors.Config(fmt.Sprintf("engine.workers must not be negative, got %d", c.Engine.Workers), nil)
	}
	switch c.Output.DefaultFormat {
	case "cli", "json":
	default:
		return errors.Config(fmt.Sprintf("output.default_format must be cli or json, got %q", c.Output.DefaultFormat), nil)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
