// Package config provides application configuration with defaults, an optional
// YAML file and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Summarize SummarizeConfig `yaml:"summarize" json:"summarize"`
	Extract   ExtractConfig   `yaml:"extract" json:"extract"`
	Query     QueryConfig     `yaml:"query" json:"query"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout_seconds" json:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds" json:"write_timeout_seconds"`
}

// LLMConfig represents the text-completion oracle configuration.
type LLMConfig struct {
	Provider        string  `yaml:"provider" json:"provider"` // "ollama" or "mock"
	BaseURL         string  `yaml:"base_url" json:"base_url"`
	Model           string  `yaml:"model" json:"model"`
	Temperature     float64 `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"max_output_tokens"`
	RequestTimeout  int     `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
}

// CacheConfig represents the LLM response cache configuration.
type CacheConfig struct {
	Backend       string `yaml:"backend" json:"backend"` // "memory" or "redis"
	TTLMinutes    int    `yaml:"ttl_minutes" json:"ttl_minutes"`
	MaxEntries    int    `yaml:"max_entries" json:"max_entries"`
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"-"` // Never serialize credentials
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`
}

// StorageConfig represents repository configuration.
type StorageConfig struct {
	Provider string `yaml:"provider" json:"provider"` // "sqlite" or "postgres"
	DSN      string `yaml:"dsn" json:"dsn"`
}

// SummarizeConfig represents summarization pipeline tuning.
type SummarizeConfig struct {
	ShortPathWords     int `yaml:"short_path_words" json:"short_path_words"`
	ChunkWords         int `yaml:"chunk_words" json:"chunk_words"`
	OverlapWords       int `yaml:"overlap_words" json:"overlap_words"`
	Workers            int `yaml:"workers" json:"workers"`
	MergeBatch         int `yaml:"merge_batch" json:"merge_batch"`
	FallbackCharBudget int `yaml:"fallback_char_budget" json:"fallback_char_budget"`
}

// ExtractConfig represents character extraction tuning.
type ExtractConfig struct {
	MaxCharacters int `yaml:"max_characters" json:"max_characters"`
}

// QueryConfig represents query orchestration tuning.
type QueryConfig struct {
	EventLimit    int `yaml:"event_limit" json:"event_limit"`
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	JSON  bool   `yaml:"json" json:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 60,
		},
		LLM: LLMConfig{
			Provider:        "ollama",
			BaseURL:         "http://localhost:11434",
			Model:           "llama3.1",
			Temperature:     0.2,
			MaxOutputTokens: 700,
			RequestTimeout:  120,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLMinutes: 15,
			MaxEntries: 1000,
			RedisAddr:  "localhost:6379",
		},
		Storage: StorageConfig{
			Provider: "sqlite",
			DSN:      "campaign-scribe.db",
		},
		Summarize: SummarizeConfig{
			ShortPathWords:     1000,
			ChunkWords:         700,
			OverlapWords:       70,
			Workers:            3,
			MergeBatch:         6,
			FallbackCharBudget: 2000,
		},
		Extract: ExtractConfig{
			MaxCharacters: 25,
		},
		Query: QueryConfig{
			EventLimit:    7,
			MaxCandidates: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// (SCRIBE_CONFIG_FILE), a .env file if present, and environment overrides.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()

	if path := os.Getenv("SCRIBE_CONFIG_FILE"); path != "" {
		if err := loadFromFile(config, path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile overlays configuration from a YAML file.
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overlays configuration from environment variables.
func loadFromEnv(config *Config) {
	setString(&config.Server.Host, "SCRIBE_HOST")
	setInt(&config.Server.Port, "SCRIBE_PORT")
	setInt(&config.Server.ReadTimeout, "SCRIBE_READ_TIMEOUT_SECONDS")
	setInt(&config.Server.WriteTimeout, "SCRIBE_WRITE_TIMEOUT_SECONDS")

	setString(&config.LLM.Provider, "SCRIBE_LLM_PROVIDER")
	setString(&config.LLM.BaseURL, "SCRIBE_LLM_BASE_URL")
	setString(&config.LLM.BaseURL, "OLLAMA_HOST")
	setString(&config.LLM.Model, "SCRIBE_LLM_MODEL")
	setFloat(&config.LLM.Temperature, "SCRIBE_LLM_TEMPERATURE")
	setInt(&config.LLM.MaxOutputTokens, "SCRIBE_LLM_MAX_OUTPUT_TOKENS")
	setInt(&config.LLM.RequestTimeout, "SCRIBE_LLM_TIMEOUT_SECONDS")

	setString(&config.Cache.Backend, "SCRIBE_CACHE_BACKEND")
	setInt(&config.Cache.TTLMinutes, "SCRIBE_CACHE_TTL_MINUTES")
	setInt(&config.Cache.MaxEntries, "SCRIBE_CACHE_MAX_ENTRIES")
	setString(&config.Cache.RedisAddr, "SCRIBE_REDIS_ADDR")
	setString(&config.Cache.RedisPassword, "SCRIBE_REDIS_PASSWORD")
	setInt(&config.Cache.RedisDB, "SCRIBE_REDIS_DB")

	setString(&config.Storage.Provider, "SCRIBE_STORAGE_PROVIDER")
	setString(&config.Storage.DSN, "SCRIBE_STORAGE_DSN")

	setInt(&config.Summarize.ShortPathWords, "SCRIBE_SUMMARIZE_SHORT_PATH_WORDS")
	setInt(&config.Summarize.ChunkWords, "SCRIBE_SUMMARIZE_CHUNK_WORDS")
	setInt(&config.Summarize.OverlapWords, "SCRIBE_SUMMARIZE_OVERLAP_WORDS")
	setInt(&config.Summarize.Workers, "SCRIBE_SUMMARIZE_WORKERS")
	setInt(&config.Summarize.MergeBatch, "SCRIBE_SUMMARIZE_MERGE_BATCH")
	setInt(&config.Summarize.FallbackCharBudget, "SCRIBE_SUMMARIZE_FALLBACK_CHAR_BUDGET")

	setInt(&config.Extract.MaxCharacters, "SCRIBE_EXTRACT_MAX_CHARACTERS")

	setInt(&config.Query.EventLimit, "SCRIBE_QUERY_EVENT_LIMIT")
	setInt(&config.Query.MaxCandidates, "SCRIBE_QUERY_MAX_CANDIDATES")

	setString(&config.Logging.Level, "SCRIBE_LOG_LEVEL")
	setBool(&config.Logging.JSON, "SCRIBE_LOG_JSON")
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.LLM.Provider {
	case "ollama", "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.LLM.Provider)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %q", c.Cache.Backend)
	}
	switch c.Storage.Provider {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage provider: %q", c.Storage.Provider)
	}
	if c.Summarize.ChunkWords < 1 {
		return fmt.Errorf("chunk words must be >= 1, got %d", c.Summarize.ChunkWords)
	}
	if c.Summarize.OverlapWords < 0 || c.Summarize.OverlapWords >= c.Summarize.ChunkWords {
		return fmt.Errorf("overlap words must be in [0, chunk words), got %d", c.Summarize.OverlapWords)
	}
	if c.Summarize.Workers < 1 {
		return fmt.Errorf("summarize workers must be >= 1, got %d", c.Summarize.Workers)
	}
	if c.Summarize.MergeBatch < 2 {
		return fmt.Errorf("merge batch must be >= 2, got %d", c.Summarize.MergeBatch)
	}
	if c.Query.EventLimit < 1 {
		c.Query.EventLimit = 1
	}
	if c.Query.EventLimit > 25 {
		c.Query.EventLimit = 25
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
