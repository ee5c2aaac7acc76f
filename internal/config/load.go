package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that carry credentials. They are never read from YAML.
const (
	EnvAssemblyAIKey = "ASSEMBLYAI_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvGeminiKeys    = "GEMINI_API_KEYS"
	EnvRabbitMQURL   = "RABBITMQ_URL"
)

// Load reads the YAML file at path, merges secrets from the env file and the
// process environment, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	envFile := cfg.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAssemblyAIKey); v != "" {
		c.Transcription.AssemblyAI.APIKey = v
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		c.Transcription.OpenAI.APIKey = v
	}
	if v := os.Getenv(EnvGeminiKeys); v != "" {
		c.LLM.Gemini.APIKeys = splitKeys(v)
	}
	if v := os.Getenv(EnvRabbitMQURL); v != "" && c.Queue.URL == "" {
		c.Queue.URL = v
	}
}

func splitKeys(v string) []string {
	var keys []string
	for _, k := range strings.Split(v, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
