// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Qdrant  QdrantConfig  `yaml:"qdrant"`
	Library LibraryConfig `yaml:"library"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
}

type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

type LibraryConfig struct {
	// CorpusPath points at an alternate summaries file; empty means the
	// embedded sample corpus.
	CorpusPath string `yaml:"corpus_path"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8000,
		},
		OpenAI: OpenAIConfig{
			Model:      "gpt-4o-mini",
			EmbedModel: "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Collection: "books",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".librarian"
	}
	return filepath.Join(home, ".librarian")
}

// Load reads configuration from an optional .env file, an optional YAML
// config file (LIBRARIAN_CONFIG or <data dir>/config.yaml) and LIBRARIAN_*/
// OPENAI_*/QDRANT_* environment variables.
//
// A missing OpenAI API key is not an error: the service degrades to the
// lexical retriever and deterministic replies.
func Load() (Config, error) {
	// Best-effort; a missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := defaults()

	path := os.Getenv("LIBRARIAN_CONFIG")
	if path == "" {
		candidate := filepath.Join(cfg.Storage.DataDir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIBRARIAN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_EMBED_MODEL"); v != "" {
		cfg.OpenAI.EmbedModel = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		cfg.Qdrant.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		cfg.Qdrant.APIKey = v
	}
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		cfg.Qdrant.Collection = v
	}
	if v := os.Getenv("LIBRARIAN_CORPUS"); v != "" {
		cfg.Library.CorpusPath = v
	}
	if v := os.Getenv("LIBRARIAN_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("LIBRARIAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key   string
	Value string
}

// ShowAll returns the non-secret config key/value pairs for the status
// command.
func ShowAll(cfg Config) []KeyInfo {
	masked := func(s string) string {
		if s == "" {
			return "(unset)"
		}
		return "(set)"
	}
	return []KeyInfo{
		{Key: "server.port", Value: strconv.Itoa(cfg.Server.Port)},
		{Key: "openai.api_key", Value: masked(cfg.OpenAI.APIKey)},
		{Key: "openai.model", Value: cfg.OpenAI.Model},
		{Key: "openai.embed_model", Value: cfg.OpenAI.EmbedModel},
		{Key: "qdrant.url", Value: cfg.Qdrant.URL},
		{Key: "qdrant.api_key", Value: masked(cfg.Qdrant.APIKey)},
		{Key: "qdrant.collection", Value: cfg.Qdrant.Collection},
		{Key: "library.corpus_path", Value: cfg.Library.CorpusPath},
		{Key: "storage.data_dir", Value: cfg.Storage.DataDir},
		{Key: "log.level", Value: cfg.Log.Level},
	}
}
