// Package config provides configuration management for Recall.
// It loads settings from environment variables with the RECALL_ prefix and
// provides sensible defaults for all options. An optional YAML file can
// override the environment; see LoadConfigFromFile.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Recall application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Security SecurityConfig `yaml:"security"`
	Memory   MemoryConfig   `yaml:"memory"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port       int    `yaml:"port"`        // Server port (default: 7373)
	Host       string `yaml:"host"`        // Server host (default: 127.0.0.1)
	EventsPath string `yaml:"events_path"` // Directory watched for store events (default: ./data/events)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	StorageEngine string `yaml:"storage_engine"` // Storage engine: sqlite, postgres (default: sqlite)
	DataPath      string `yaml:"data_path"`      // Path to data directory (default: ./data)
	PostgresDSN   string `yaml:"postgres_dsn"`   // PostgreSQL connection string
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	Provider             string `yaml:"provider"`               // LLM provider: ollama, openai, anthropic (default: ollama)
	OllamaURL            string `yaml:"ollama_url"`             // Ollama API URL (default: http://localhost:11434)
	OllamaModel          string `yaml:"ollama_model"`           // Ollama model for generation (default: qwen2.5:7b)
	OllamaEmbeddingModel string `yaml:"ollama_embedding_model"` // Ollama model for embeddings (default: nomic-embed-text)
	OpenAIAPIKey         string `yaml:"openai_api_key"`         // OpenAI API key
	OpenAIModel          string `yaml:"openai_model"`           // OpenAI model name (default: gpt-4o-mini)
	OpenAIEmbeddingModel string `yaml:"openai_embedding_model"` // OpenAI embedding model (default: text-embedding-3-small)
	AnthropicAPIKey      string `yaml:"anthropic_api_key"`      // Anthropic API key
	AnthropicModel       string `yaml:"anthropic_model"`        // Anthropic model name
}

// SecurityConfig contains authentication and rate limiting settings.
type SecurityConfig struct {
	APIToken       string  `yaml:"api_token"`        // Bearer token for the HTTP API; empty disables auth
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // Sustained requests per second (default: 5)
	RateLimitBurst int     `yaml:"rate_limit_burst"` // Burst allowance (default: 10)
}

// MemoryConfig contains the memory engine's tunable parameters.
type MemoryConfig struct {
	TopK                 int     `yaml:"top_k"`                 // Memories retrieved per query (default: 5)
	DuplicateThreshold   float64 `yaml:"duplicate_threshold"`   // Cosine similarity above which a fact is a duplicate (default: 0.92)
	CompressionThreshold int     `yaml:"compression_threshold"` // Record count that triggers compaction (default: 50)
	CompressionBatch     int     `yaml:"compression_batch"`     // Oldest records folded per compaction (default: 25)
	ShortTermWindow      int     `yaml:"short_term_window"`     // Recent messages kept per session (default: 10)
	RefineQueries        bool    `yaml:"refine_queries"`        // Centroid-refine query embeddings before ranking (default: true)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the RECALL_ prefix.
func LoadConfig() (*Config, error) {
	return buildBaseConfig(), nil
}

// LoadConfigFromFile loads configuration from environment variables and then
// overlays the YAML file at path. File values take precedence over the
// environment for every key present in the file.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := buildBaseConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// DatabaseDSN returns the connection string for the configured storage
// engine.
func (c *Config) DatabaseDSN() string {
	if c.Storage.StorageEngine == "postgres" {
		return c.Storage.PostgresDSN
	}
	return c.Storage.DataPath + "/memories.db"
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       getEnvInt("RECALL_PORT", 7373),
			Host:       getEnv("RECALL_HOST", "127.0.0.1"),
			EventsPath: getEnv("RECALL_EVENTS_PATH", "./data/events"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("RECALL_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("RECALL_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("RECALL_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			Provider:             getEnv("RECALL_LLM_PROVIDER", "ollama"),
			OllamaURL:            getEnv("RECALL_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:          getEnv("RECALL_OLLAMA_MODEL", "qwen2.5:7b"),
			OllamaEmbeddingModel: getEnv("RECALL_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:         getEnv("RECALL_OPENAI_API_KEY", ""),
			OpenAIModel:          getEnv("RECALL_OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIEmbeddingModel: getEnv("RECALL_OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			AnthropicAPIKey:      getEnv("RECALL_ANTHROPIC_API_KEY", ""),
			AnthropicModel:       getEnv("RECALL_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
		},
		Security: SecurityConfig{
			APIToken:       getEnv("RECALL_API_TOKEN", ""),
			RateLimitRPS:   getEnvFloat("RECALL_RATE_LIMIT_RPS", 5),
			RateLimitBurst: getEnvInt("RECALL_RATE_LIMIT_BURST", 10),
		},
		Memory: MemoryConfig{
			TopK:                 getEnvInt("RECALL_TOP_K", 5),
			DuplicateThreshold:   getEnvFloat("RECALL_DUPLICATE_THRESHOLD", 0.92),
			CompressionThreshold: getEnvInt("RECALL_COMPRESSION_THRESHOLD", 50),
			CompressionBatch:     getEnvInt("RECALL_COMPRESSION_BATCH", 25),
			ShortTermWindow:      getEnvInt("RECALL_SHORT_TERM_WINDOW", 10),
			RefineQueries:        getEnvBool("RECALL_REFINE_QUERIES", true),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. It recognizes "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
