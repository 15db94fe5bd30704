package config

import (
	"fmt"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"os"
	"strings"
)

const (
	EnvPrefix  = "NEXUS"
	ConfigEnv  = "NEXUS_CONFIG"
	configType = "yaml"
)

var defaults = map[string]any{
	"llm.provider":        "openai",
	"llm.model":           "gpt-4o-mini",
	"llm.api_key":         "",
	"llm.base_url":        "",
	"llm.embedding_model": "text-embedding-3-small",
	"llm.temperature":     0.7,
	"llm.max_tokens":      8000,
	"llm.max_retries":     3,

	"agent.id":                     "nexus",
	"agent.name":                   "Nexus",
	"agent.max_steps":              15,
	"agent.conversation_capacity":  20,
	"agent.nanoagent_timeout":      "30s",
	"agent.nanoagent_steps":        3,
	"agent.observation_max_tokens": 5000,
	"agent.observation_max_chars":  20000,
	"agent.token_encoding":         "cl100k_base",

	"memory.enabled":    true,
	"memory.data_dir":   "./nexus_data",
	"memory.collection": "nexus_memory",
	"memory.similarity": "keyword",

	"tools.file_root":    "",
	"tools.shell_dir":    "./nexus_data/workspace",
	"tools.http_timeout": "30s",

	"server.port":             8080,
	"server.shutdown_timeout": "15s",
	"server.sync_timeout":     "5m",

	"logging.level":  "info",
	"logging.pretty": true,
	"logging.file":   "",
}

// Loader reads an optional YAML file layered under NEXUS_* environment variables.
type Loader struct {
	path string
	v    *viper.Viper
}

// NewLoader uses path, or $NEXUS_CONFIG when path is empty.
func NewLoader(path string) *Loader {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{path: path, v: v}
}

func (l *Loader) Path() string {
	return l.path
}

func (l *Loader) Load() (*Config, error) {
	if l.path != "" {
		if _, err := os.Stat(l.path); err == nil {
			l.v.SetConfigFile(l.path)
			l.v.SetConfigType(configType)
			if err := l.v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKey(cfg.LLM.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// providerKey falls back to the provider SDKs' own environment variables.
func providerKey(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// Watch calls fn with the reloaded config each time the file changes. Invalid edits are logged and skipped.
func (l *Loader) Watch(fn func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Str("op", e.Op.String()).Msg("config changed")
		cfg, err := l.decode()
		if err != nil {
			log.Error().Err(err).Msg("ignoring invalid config")
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
}

func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}
