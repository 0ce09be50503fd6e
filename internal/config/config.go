// Package config loads shelf configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Backend names for the vector store selector.
const (
	BackendSQLite = "sqlite"
	BackendChroma = "chroma"
)

// Config holds all configuration for the application.
type Config struct {
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	Vector  VectorConfig  `mapstructure:"vector"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

// OllamaConfig holds model serving configuration. Host is required; there
// is no usable default.
type OllamaConfig struct {
	Host       string `mapstructure:"host"`
	LLMModel   string `mapstructure:"llm_model"`
	EmbedModel string `mapstructure:"embed_model"`
}

// VectorConfig selects and configures the vector store backend.
type VectorConfig struct {
	Backend   string `mapstructure:"backend"`
	ChromaURL string `mapstructure:"chroma_url"`
	DBPath    string `mapstructure:"db_path"`
	Dim       int    `mapstructure:"dimension"`
}

// CatalogConfig holds the project catalog database location.
type CatalogConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Load reads configuration from the optional file at path, then overlays
// SHELF_* environment variables (OLLAMA_HOST is honored too). Validation
// failures are fatal: they are raised here, before anything downstream is
// constructed.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("shelf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Allow the conventional bare variable alongside SHELF_OLLAMA_HOST.
	v.BindEnv("ollama.host", "SHELF_OLLAMA_HOST", "OLLAMA_HOST")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ollama.llm_model", "qwen2.5-coder:7b")
	v.SetDefault("ollama.embed_model", "nomic-embed-text")

	v.SetDefault("vector.backend", BackendSQLite)
	v.SetDefault("vector.chroma_url", "http://localhost:8000")
	v.SetDefault("vector.db_path", "./shelf_vec.db")
	v.SetDefault("vector.dimension", 768)

	v.SetDefault("catalog.db_path", "./shelf.db")
}

// Validate checks required fields and the backend selector.
func (c *Config) Validate() error {
	if c.Ollama.Host == "" {
		return fmt.Errorf("ollama host is required: set ollama.host or OLLAMA_HOST")
	}
	if c.Vector.Backend != BackendSQLite && c.Vector.Backend != BackendChroma {
		return fmt.Errorf("unknown vector backend %q: want %q or %q", c.Vector.Backend, BackendSQLite, BackendChroma)
	}
	if c.Vector.Dim <= 0 {
		return fmt.Errorf("vector dimension must be positive, got %d", c.Vector.Dim)
	}
	return nil
}
