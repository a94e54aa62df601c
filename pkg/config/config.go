package config

import (
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "CREWLINE"

type Config struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Agent     AgentConfig               `mapstructure:"agent"`
	Prompts   PromptsConfig             `mapstructure:"prompts"`
	Journal   JournalConfig             `mapstructure:"journal"`
	Log       LogConfig                 `mapstructure:"log"`
	Policy    PolicyConfig              `mapstructure:"policy"`
}

type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	Enabled     bool    `mapstructure:"enabled"`
}

type AgentConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

type PromptsConfig struct {
	Dir string `mapstructure:"dir"`
}

type JournalConfig struct {
	// Path of the sqlite journal; empty disables journaling.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level               string `mapstructure:"level"`
	Format              string `mapstructure:"format"`
	Transcript          string `mapstructure:"transcript"`
	TranscriptMaxSizeMB int    `mapstructure:"transcript_max_size_mb"`
}

type PolicyConfig struct {
	AllowTools   []string `mapstructure:"allow_tools"`
	DenyTools    []string `mapstructure:"deny_tools"`
	DenyPatterns []string `mapstructure:"deny_patterns"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("providers.openai.model", "gpt-4o")
	v.SetDefault("providers.openai.temperature", 0.7)
	v.SetDefault("providers.openai.enabled", true)
	v.SetDefault("agent.max_iterations", 10)
	v.SetDefault("prompts.dir", "./prompts")
	v.SetDefault("journal.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("log.transcript", "")
	v.SetDefault("log.transcript_max_size_mb", 10)
}

// LoadDotEnv loads environment files (default ".env") into the process
// environment. Missing files are ignored; existing variables are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "load env file %s", f)
		}
	}
	return nil
}

// Load reads configuration from path (yaml, json or toml), or from
// ./crewline.{yaml,json} when path is empty, layered over defaults and
// CREWLINE_* environment variables. OPENAI_API_KEY feeds the openai provider key.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("providers.openai.api_key", envPrefix+"_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, errors.Wrap(err, "bind api key env")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	} else {
		v.SetConfigName("crewline")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return &cfg, nil
}

// GetDefaultProvider returns the enabled provider that sorts first by name.
func (c *Config) GetDefaultProvider() (string, ProviderConfig, bool) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p, true
		}
	}
	return "", ProviderConfig{}, false
}
