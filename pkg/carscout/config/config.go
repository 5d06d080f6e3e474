// Package config loads service configuration from defaults, an optional
// config file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "CARSCOUT"

// Config holds all configuration of the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Places    PlacesConfig    `mapstructure:"places"`
	Dealers   DealersConfig   `mapstructure:"dealers"`
	Search    SearchConfig    `mapstructure:"search"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type InventoryConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig points at an OpenAI-compatible chat completions API.
type LLMConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type PlacesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DealersConfig struct {
	// File overrides the built-in registry when set.
	File string `mapstructure:"file"`
}

type SearchConfig struct {
	MaxPerModel int `mapstructure:"max_per_model"`
	Limit       int `mapstructure:"limit"`
}

// SetDefaults registers every key with its default so env overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")
	v.SetDefault("inventory.base_url", "https://inventory.dealerfeed.example.com/api")
	v.SetDefault("inventory.timeout", 15*time.Second)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.requests_per_second", 5.0)
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("places.api_key", "")
	v.SetDefault("places.timeout", 5*time.Second)
	v.SetDefault("dealers.file", "")
	v.SetDefault("search.max_per_model", 3)
	v.SetDefault("search.limit", 10)
}

// Bind wires defaults and environment lookups into v. Conventional variable
// names are honoured next to the prefixed ones.
func Bind(v *viper.Viper) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string][]string{
		"server.address": {"CARSCOUT_SERVER_ADDRESS", "SERVER_ADDRESS"},
		"llm.api_key":    {"CARSCOUT_LLM_API_KEY", "OPENAI_API_KEY"},
		"places.api_key": {"CARSCOUT_PLACES_API_KEY", "GOOGLE_PLACES_API_KEY"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Load reads .env (if present) and configFile (if set) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err := Bind(v); err != nil {
		return nil, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with. API keys are not
// checked here; endpoints that need them report their absence.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address must be set")
	}
	if c.Inventory.BaseURL == "" {
		return errors.New("inventory.base_url must be set")
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit)
	}
	if c.Places.Timeout <= 0 {
		return fmt.Errorf("places.timeout must be positive, got %s", c.Places.Timeout)
	}
	return nil
}
