// Package config loads engine configuration from YAML files with sensible
// defaults for every omitted field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "anthropic", "mock"
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// AgentConfig bounds the agent loop.
type AgentConfig struct {
	MaxSteps           int `yaml:"max_steps"`
	DuplicateThreshold int `yaml:"duplicate_threshold"`
	MemoryCapacity     int `yaml:"memory_capacity"`
}

// LogConfig shapes the structured logger.
type LogConfig struct {
	Level     string `yaml:"level"`  // debug, info, warn, error
	Format    string `yaml:"format"` // text, json
	AddSource bool   `yaml:"add_source"`
}

// Config is the root configuration document.
type Config struct {
	LLM   LLMConfig   `yaml:"llm"`
	Agent AgentConfig `yaml:"agent"`
	Log   LogConfig   `yaml:"log"`
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a YAML configuration file. Missing fields fall
// back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.Agent.MaxSteps == 0 {
		c.Agent.MaxSteps = 30
	}
	if c.Agent.DuplicateThreshold == 0 {
		c.Agent.DuplicateThreshold = 2
	}
	if c.Agent.MemoryCapacity == 0 {
		c.Agent.MemoryCapacity = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}
	if c.Agent.MaxSteps < 0 {
		return fmt.Errorf("agent max_steps must not be negative")
	}
	return nil
}
