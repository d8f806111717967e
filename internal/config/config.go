// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	LLM       LLMModelConfig  `mapstructure:"llm" yaml:"llm"`
	Prompt    PromptConfig    `mapstructure:"prompt" yaml:"prompt"`
	Groundhog GroundhogConfig `mapstructure:"groundhog" yaml:"groundhog"`
	Vote      VoteConfig      `mapstructure:"vote" yaml:"vote"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	// Level applies to the rotating log file.
	Level string `mapstructure:"level" yaml:"level"`
	// ConsoleLevel applies to stderr. Kept high by default so the
	// conversation on stdout is not interleaved with log lines.
	ConsoleLevel string      `mapstructure:"console_level" yaml:"console_level"`
	Format       string      `mapstructure:"format" yaml:"format"`
	AddSource    bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName  string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile      string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize      int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups   int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge       int         `mapstructure:"max_age" yaml:"max_age"`
	Compress     bool        `mapstructure:"compress" yaml:"compress"`
	Colors       ColorConfig `mapstructure:"colors" yaml:"colors"`
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

// BrowserConfig holds settings for the browser instance driven by the flows.
type BrowserConfig struct {
	Headless   bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	ExecPath   string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args       []string `mapstructure:"args" yaml:"args"`
	Debug      bool     `mapstructure:"debug" yaml:"debug"`
}

// NetworkConfig tunes the page level timeouts.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// StepTimeout bounds every single wait/click/fill step.
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
)

// providerKeyEnv names the conventional API key variable of each provider.
// It is only read when no key was configured explicitly.
var providerKeyEnv = map[LLMProvider]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// LLMModelConfig defines the configuration for the extraction model.
type LLMModelConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	MaxRetryElapsed   time.Duration `mapstructure:"max_retry_elapsed" yaml:"max_retry_elapsed"`
}

// PromptConfig controls the terminal conversation.
type PromptConfig struct {
	TypeEffect bool          `mapstructure:"type_effect" yaml:"type_effect"`
	MinDelay   time.Duration `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	Prefix     string        `mapstructure:"prefix" yaml:"prefix"`
	Color      string        `mapstructure:"color" yaml:"color"`
	// MaxAttempts bounds every re-ask loop. Zero means unbounded.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// GroundhogConfig configures the groundhog prediction lookup.
type GroundhogConfig struct {
	URL         string        `mapstructure:"url" yaml:"url"`
	KeyDelay    time.Duration `mapstructure:"key_delay" yaml:"key_delay"`
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// VoteConfig configures the voter registration check.
type VoteConfig struct {
	URL          string        `mapstructure:"url" yaml:"url"`
	KeyDelay     time.Duration `mapstructure:"key_delay" yaml:"key_delay"`
	StreetWait   time.Duration `mapstructure:"street_wait" yaml:"street_wait"`
	Intro        bool          `mapstructure:"intro" yaml:"intro"`
	DefaultsFile string        `mapstructure:"defaults_file" yaml:"defaults_file"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.console_level", "warn")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webpilot")
	v.SetDefault("logger.log_file", "webpilot.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.debug", false)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "90s")
	v.SetDefault("network.step_timeout", "60s")

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderOpenAI))
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_timeout", "30s")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 256)
	v.SetDefault("llm.requests_per_second", 2.0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("llm.max_retry_elapsed", "1m")

	// -- Prompt --
	v.SetDefault("prompt.type_effect", true)
	v.SetDefault("prompt.min_delay", "15ms")
	v.SetDefault("prompt.max_delay", "40ms")
	v.SetDefault("prompt.prefix", "🤖: ")
	v.SetDefault("prompt.color", "12")
	v.SetDefault("prompt.max_attempts", 0)

	// -- Groundhog --
	v.SetDefault("groundhog.url", "https://groundhog-day.com")
	v.SetDefault("groundhog.key_delay", "50ms")
	v.SetDefault("groundhog.settle_delay", "250ms")

	// -- Vote --
	v.SetDefault("vote.url", "https://vreg.registertovoteon.ca/en/home")
	v.SetDefault("vote.key_delay", "100ms")
	v.SetDefault("vote.street_wait", "5s")
	v.SetDefault("vote.intro", true)
	v.SetDefault("vote.defaults_file", "data.json")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	_ = v.BindEnv("llm.api_key", "WEBPILOT_LLM_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(providerKeyEnv[cfg.LLM.Provider])
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Network.StepTimeout <= 0 {
		return fmt.Errorf("network.step_timeout must be a positive duration")
	}
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	if err := c.Prompt.Validate(); err != nil {
		return fmt.Errorf("prompt configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the LLM settings. The API key is not required here: the
// groundhog flow never calls the model, so the key is checked when a client
// is built.
func (l *LLMModelConfig) Validate() error {
	switch l.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider '%s'", l.Provider)
	}
	if l.Model == "" {
		return fmt.Errorf("model is required")
	}
	if l.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}

// Validate checks the prompt settings.
func (p *PromptConfig) Validate() error {
	if p.MinDelay < 0 || p.MaxDelay < p.MinDelay {
		return fmt.Errorf("min_delay must be >= 0 and <= max_delay")
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative")
	}
	return nil
}
