package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBPath       string             `yaml:"db_path" mapstructure:"db_path"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Provider     ProviderConfig     `yaml:"provider" mapstructure:"provider"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Resilience   ResilienceConfig   `yaml:"resilience" mapstructure:"resilience"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	SecretKey       string        `yaml:"secret_key" mapstructure:"secret_key"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

type ProviderConfig struct {
	Type        string  `yaml:"type" mapstructure:"type"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

type OrchestratorConfig struct {
	MaxTurns     int    `yaml:"max_turns" mapstructure:"max_turns"`
	DeletePolicy string `yaml:"delete_policy" mapstructure:"delete_policy"`
}

type ResilienceConfig struct {
	MaxRetries int  `yaml:"max_retries" mapstructure:"max_retries"`
	Breaker    bool `yaml:"breaker" mapstructure:"breaker"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EnvPrefix prefixes every environment override, e.g. DONTFORGET_DB_PATH.
const EnvPrefix = "DONTFORGET"

func DefaultConfig() *Config {
	return &Config{
		DBPath: "memory.db",
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Provider: ProviderConfig{
			Type:        "google",
			Model:       "gemini-2.0-flash",
			Temperature: 0.1,
		},
		Orchestrator: OrchestratorConfig{
			MaxTurns:     5,
			DeletePolicy: "strict",
		},
		Resilience: ResilienceConfig{
			MaxRetries: 3,
			Breaker:    true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Options controls where Load looks for its inputs.
type Options struct {
	// ConfigFile is an explicit config path; empty means search the defaults.
	ConfigFile string
	// DotEnv is a .env file merged into the environment without overriding
	// variables that are already set. Empty means ".env"; "-" disables it.
	DotEnv string
}

func Load(opts Options) (*Config, error) {
	if err := loadDotEnv(opts.DotEnv); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "dontforget"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dontforget"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Variable names used by earlier deployments.
	v.BindEnv("provider.api_key", EnvPrefix+"_PROVIDER_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("server.secret_key", EnvPrefix+"_SERVER_SECRET_KEY", EnvPrefix+"_SECRET_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Provider.APIKey = os.ExpandEnv(cfg.Provider.APIKey)
	cfg.Provider.BaseURL = os.ExpandEnv(cfg.Provider.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.secret_key", d.Server.SecretKey)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("provider.type", d.Provider.Type)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.model", d.Provider.Model)
	v.SetDefault("provider.temperature", d.Provider.Temperature)
	v.SetDefault("orchestrator.max_turns", d.Orchestrator.MaxTurns)
	v.SetDefault("orchestrator.delete_policy", d.Orchestrator.DeletePolicy)
	v.SetDefault("resilience.max_retries", d.Resilience.MaxRetries)
	v.SetDefault("resilience.breaker", d.Resilience.Breaker)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadDotEnv copies variables from a .env file into the process
// environment. Real environment variables win.
func loadDotEnv(path string) error {
	if path == "-" {
		return nil
	}
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("config: dotenv %s: %w", path, err)
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("config: dotenv %s: %w", path, err)
	}
	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("config: dotenv %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path is required")
	}
	switch c.Provider.Type {
	case "google":
		if c.Provider.APIKey == "" {
			return errors.New("config: provider type google requires api_key (or GEMINI_API_KEY)")
		}
	case "openai":
		if c.Provider.BaseURL == "" {
			return errors.New("config: provider type openai requires base_url")
		}
	default:
		return fmt.Errorf("config: provider has invalid type %q (must be google or openai)", c.Provider.Type)
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("config: provider temperature %v out of range [0, 2]", c.Provider.Temperature)
	}
	if c.Orchestrator.MaxTurns < 1 {
		return fmt.Errorf("config: orchestrator max_turns must be at least 1, got %d", c.Orchestrator.MaxTurns)
	}
	switch c.Orchestrator.DeletePolicy {
	case "strict", "advisory":
	default:
		return fmt.Errorf("config: orchestrator delete_policy %q must be strict or advisory", c.Orchestrator.DeletePolicy)
	}
	if c.Resilience.MaxRetries < 0 {
		return errors.New("config: resilience max_retries cannot be negative")
	}
	return nil
}

// ValidateServer checks the extra settings the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.Server.SecretKey == "" {
		return errors.New("config: server secret_key is required (or DONTFORGET_SECRET_KEY)")
	}
	if c.Server.Addr == "" {
		return errors.New("config: server addr is required")
	}
	return nil
}
