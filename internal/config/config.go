// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	LLM() LLMConfig
	Mapping() MappingConfig
	Financial() FinancialConfig
	Pipeline() PipelineConfig
	Metrics() MetricsConfig

	// Setters used by CLI flag overrides.
	SetRulesPath(path string)
	SetPipelineConcurrency(n int)
	SetDatabaseURL(url string)
}

// Config holds the entire application configuration. Sections are exported so
// viper can populate them; callers read them through the Interface getters.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	LLMCfg       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	MappingCfg   MappingConfig   `mapstructure:"mapping" yaml:"mapping"`
	FinancialCfg FinancialConfig `mapstructure:"financial" yaml:"financial"`
	PipelineCfg  PipelineConfig  `mapstructure:"pipeline" yaml:"pipeline"`
	MetricsCfg   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig   { return c.DatabaseCfg }
func (c *Config) LLM() LLMConfig             { return c.LLMCfg }
func (c *Config) Mapping() MappingConfig     { return c.MappingCfg }
func (c *Config) Financial() FinancialConfig { return c.FinancialCfg }
func (c *Config) Pipeline() PipelineConfig   { return c.PipelineCfg }
func (c *Config) Metrics() MetricsConfig     { return c.MetricsCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetRulesPath(path string)     { c.MappingCfg.RulesPath = path }
func (c *Config) SetPipelineConcurrency(n int) { c.PipelineCfg.Concurrency = n }
func (c *Config) SetDatabaseURL(url string)    { c.DatabaseCfg.URL = url }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details. An empty URL means the
// asset inventory is read from a file and analyses are not persisted.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderNone   LLMProvider = ""
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
)

// LLMConfig configures the model used by the AI asset-matching tier.
type LLMConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// Enabled reports whether an AI provider is configured at all.
func (l LLMConfig) Enabled() bool { return l.Provider != ProviderNone }

// MappingConfig locates the asset mapping rule file.
type MappingConfig struct {
	RulesPath  string `mapstructure:"rules_path" yaml:"rules_path"`
	WatchRules bool   `mapstructure:"watch_rules" yaml:"watch_rules"`
}

// FinancialConfig holds the constants of the impact model.
type FinancialConfig struct {
	DefaultHourlyCost float64 `mapstructure:"default_hourly_cost" yaml:"default_hourly_cost"`
	DefaultFixCost    float64 `mapstructure:"default_fix_cost" yaml:"default_fix_cost"`
	BreachPenalty     float64 `mapstructure:"breach_penalty" yaml:"breach_penalty"`
	DirectLossRatio   float64 `mapstructure:"direct_loss_ratio" yaml:"direct_loss_ratio"`
	AssumePII         bool    `mapstructure:"assume_pii" yaml:"assume_pii"`
}

// PipelineConfig tunes the matching stage.
type PipelineConfig struct {
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	AITimeout      time.Duration `mapstructure:"ai_timeout" yaml:"ai_timeout"`
	AIPreviewChars int           `mapstructure:"ai_preview_chars" yaml:"ai_preview_chars"`
}

// MetricsConfig controls the prometheus textfile export.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	Textfile  string `mapstructure:"textfile" yaml:"textfile"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "riskledger")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- LLM --
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_timeout", "60s")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.requests_per_second", 2.0)

	// -- Mapping --
	v.SetDefault("mapping.rules_path", "asset_mapping_rules.json")
	v.SetDefault("mapping.watch_rules", false)

	// -- Financial --
	v.SetDefault("financial.default_hourly_cost", 10000.0)
	v.SetDefault("financial.default_fix_cost", 5000.0)
	v.SetDefault("financial.breach_penalty", 1000000.0)
	v.SetDefault("financial.direct_loss_ratio", 0.04)
	v.SetDefault("financial.assume_pii", false)

	// -- Pipeline --
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.ai_timeout", "30s")
	v.SetDefault("pipeline.ai_preview_chars", 500)

	// -- Metrics --
	v.SetDefault("metrics.namespace", "riskledger")
	v.SetDefault("metrics.textfile", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("llm.api_key", "RISKLEDGER_LLM_API_KEY")
	_ = v.BindEnv("database.url", "RISKLEDGER_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every file path setting.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.MappingCfg.RulesPath, &c.LoggerCfg.LogFile, &c.MetricsCfg.Textfile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.PipelineCfg.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be a positive integer")
	}
	if c.PipelineCfg.AITimeout <= 0 {
		return fmt.Errorf("pipeline.ai_timeout must be a positive duration")
	}
	if c.PipelineCfg.AIPreviewChars <= 0 {
		return fmt.Errorf("pipeline.ai_preview_chars must be a positive integer")
	}
	if err := c.FinancialCfg.Validate(); err != nil {
		return fmt.Errorf("financial configuration invalid: %w", err)
	}
	if err := c.LLMCfg.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the financial constants.
func (f *FinancialConfig) Validate() error {
	if f.DefaultHourlyCost < 0 || f.DefaultFixCost < 0 || f.BreachPenalty < 0 {
		return fmt.Errorf("costs and penalties must not be negative")
	}
	if f.DirectLossRatio > 1 {
		return fmt.Errorf("direct_loss_ratio must not exceed 1.0")
	}
	return nil
}

// Validate checks the LLM configuration. An unset provider is valid and
// disables the AI tier.
func (l *LLMConfig) Validate() error {
	switch l.Provider {
	case ProviderNone:
		return nil
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported provider %q", l.Provider)
	}
	if l.Model == "" {
		return fmt.Errorf("model is required when a provider is set")
	}
	if l.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}
