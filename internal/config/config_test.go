package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 8000, cfg.LLM.MaxTokens)
	assert.Equal(t, 15, cfg.Agent.MaxSteps)
	assert.Equal(t, 20, cfg.Agent.ConversationCapacity)
	assert.Equal(t, 30*time.Second, cfg.Agent.NanoagentTimeout)
	assert.Equal(t, 5000, cfg.Agent.ObservationMaxTokens)
	assert.Equal(t, 20000, cfg.Agent.ObservationMaxChars)
	assert.Equal(t, "./nexus_data", cfg.Memory.DataDir)
	assert.Equal(t, "nexus_memory", cfg.Memory.Collection)
	assert.Equal(t, "keyword", cfg.Memory.Similarity)
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: anthropic
  model: claude-sonnet-4-5
agent:
  max_steps: 7
  nanoagent_timeout: 5s
server:
  port: 9000
`), 0o644))
	t.Setenv("NEXUS_SERVER_PORT", "9100")
	t.Setenv("NEXUS_LLM_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.Equal(t, 7, cfg.Agent.MaxSteps)
	assert.Equal(t, 5*time.Second, cfg.Agent.NanoagentTimeout)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sk-ant-test", cfg.LLM.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"provider":   "llm:\n  provider: carrier-pigeon\n",
		"similarity": "memory:\n  similarity: vibes\n",
		"steps":      "agent:\n  max_steps: 0\n",
		"embedding":  "llm:\n  provider: anthropic\nmemory:\n  similarity: embedding\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nexus.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	t.Setenv("NEXUS_AGENT_TOKEN_ENCODING", "approx")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	l := cfg.LLMConfig()
	assert.Equal(t, cfg.LLM.Model, l.Model)
	assert.EqualValues(t, 3, l.MaxRetries)

	b := cfg.ObservationBudget()
	assert.Equal(t, 20000, b.MaxChars)
	assert.Equal(t, 5000, b.MaxTokens)
	assert.Equal(t, 3, b.Tokenizer.Count("abcdefghij"))

	assert.Equal(t, "info", cfg.LoggerConfig().Level)
}
