// Package config loads service configuration from a config file and
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Connect   ConnectConfig   `mapstructure:"connect"`
	Assistant AssistantConfig `mapstructure:"assistant"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// JobsConfig holds sync job queue settings.
type JobsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
	Workers    int `mapstructure:"workers"`
}

// ReportsConfig holds report generation defaults used when a user has
// not configured their own figures.
type ReportsConfig struct {
	MonthlyRevenueBudget float64 `mapstructure:"monthly_revenue_budget"`
	MonthlyExpenseBudget float64 `mapstructure:"monthly_expense_budget"`
	MonthlyProfitTarget  float64 `mapstructure:"monthly_profit_target"`
	DefaultSalesTaxRate  float64 `mapstructure:"default_sales_tax_rate"`
	SelfEmploymentRate   float64 `mapstructure:"self_employment_rate"`
	EstimatedIncomeRate  float64 `mapstructure:"estimated_income_rate"`
}

// ConnectConfig holds connector API endpoints. Overridable for testing
// against sandboxes.
type ConnectConfig struct {
	SquareBaseURL   string `mapstructure:"square_base_url"`
	XeroBaseURL     string `mapstructure:"xero_base_url"`
	GustoBaseURL    string `mapstructure:"gusto_base_url"`
	AirtableBaseURL string `mapstructure:"airtable_base_url"`
	WaveGraphQLURL  string `mapstructure:"wave_graphql_url"`
}

// AssistantConfig holds settings for the AI assistant.
type AssistantConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the PASHOOT_ prefix with
// underscores, e.g. PASHOOT_SERVER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)
	v.SetDefault("jobs.buffer_size", 100)
	v.SetDefault("jobs.workers", 5)
	v.SetDefault("reports.monthly_revenue_budget", 10000.0)
	v.SetDefault("reports.monthly_expense_budget", 7000.0)
	v.SetDefault("reports.monthly_profit_target", 3000.0)
	v.SetDefault("reports.default_sales_tax_rate", 0.08)
	v.SetDefault("reports.self_employment_rate", 0.153)
	v.SetDefault("reports.estimated_income_rate", 0.22)
	v.SetDefault("connect.square_base_url", "https://connect.squareup.com/v2")
	v.SetDefault("connect.xero_base_url", "https://api.xero.com/api.xro/2.0")
	v.SetDefault("connect.gusto_base_url", "https://api.gusto.com/v1")
	v.SetDefault("connect.airtable_base_url", "https://api.airtable.com/v0")
	v.SetDefault("connect.wave_graphql_url", "https://gql.waveapps.com/graphql/public")
	v.SetDefault("assistant.model", "gemini-2.0-flash")

	v.SetEnvPrefix("PASHOOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
