package config

import (
	"fmt"
	"go-nexus/pkg/data"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/logger"
	"time"
)

type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type LLMConfig struct {
	Provider       string  `mapstructure:"provider"` // openai, anthropic
	Model          string  `mapstructure:"model"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	MaxRetries     uint    `mapstructure:"max_retries"`
}

type AgentConfig struct {
	ID                   string        `mapstructure:"id"`
	Name                 string        `mapstructure:"name"`
	MaxSteps             int           `mapstructure:"max_steps"`
	ConversationCapacity int           `mapstructure:"conversation_capacity"`
	NanoagentTimeout     time.Duration `mapstructure:"nanoagent_timeout"`
	NanoagentSteps       int           `mapstructure:"nanoagent_steps"`
	ObservationMaxTokens int           `mapstructure:"observation_max_tokens"`
	ObservationMaxChars  int           `mapstructure:"observation_max_chars"`
	TokenEncoding        string        `mapstructure:"token_encoding"`
}

type MemoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DataDir    string `mapstructure:"data_dir"`
	Collection string `mapstructure:"collection"`
	Similarity string `mapstructure:"similarity"` // keyword, embedding
}

type ToolsConfig struct {
	FileRoot    string        `mapstructure:"file_root"`
	ShellDir    string        `mapstructure:"shell_dir"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SyncTimeout     time.Duration `mapstructure:"sync_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider: unsupported value %q", c.LLM.Provider)
	}
	switch c.Memory.Similarity {
	case "keyword", "embedding":
	default:
		return fmt.Errorf("memory.similarity: unsupported value %q", c.Memory.Similarity)
	}
	if c.Memory.Similarity == "embedding" && c.LLM.Provider != "openai" {
		return fmt.Errorf("memory.similarity: embedding needs the openai provider")
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps)
	}
	if c.Agent.ConversationCapacity <= 0 {
		return fmt.Errorf("agent.conversation_capacity must be positive, got %d", c.Agent.ConversationCapacity)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider:       c.LLM.Provider,
		Model:          c.LLM.Model,
		APIKey:         c.LLM.APIKey,
		BaseURL:        c.LLM.BaseURL,
		EmbeddingModel: c.LLM.EmbeddingModel,
		Temperature:    c.LLM.Temperature,
		MaxTokens:      c.LLM.MaxTokens,
		MaxRetries:     c.LLM.MaxRetries,
	}
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{Level: c.Logging.Level, Pretty: c.Logging.Pretty, File: c.Logging.File}
}

func (c *Config) ObservationBudget() data.Budget {
	return data.Budget{
		MaxChars:  c.Agent.ObservationMaxChars,
		MaxTokens: c.Agent.ObservationMaxTokens,
		Tokenizer: data.NewTokenizer(c.Agent.TokenEncoding),
	}
}
