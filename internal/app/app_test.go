package app

import (
	"context"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-nexus/internal/config"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
	"path/filepath"
	"testing"
	"time"
)

type answer string

func (a answer) Complete(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return "Final Answer: " + string(a), nil
}

func testConfig(t *testing.T, memory bool) *config.Config {
	t.Helper()
	t.Setenv("NEXUS_AGENT_TOKEN_ENCODING", "approx")
	t.Setenv("NEXUS_MEMORY_ENABLED", "false")
	if memory {
		t.Setenv("NEXUS_MEMORY_ENABLED", "true")
	}
	t.Setenv("NEXUS_MEMORY_DATA_DIR", t.TempDir())
	t.Setenv("NEXUS_TOOLS_SHELL_DIR", filepath.Join(t.TempDir(), "ws"))
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestBuild(t *testing.T) {
	for name, memory := range map[string]bool{"in-memory": false, "sqlite": true} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a, err := Build(ctx, testConfig(t, memory), WithLLM(answer("42")))
			require.NoError(t, err)
			t.Cleanup(func() { _ = a.Close() })

			assert.Contains(t, a.Registry.List(), "memory_search")
			assert.Contains(t, a.Registry.List(), "shell")
			assert.NotEmpty(t, a.Spawner.Kinds())

			res, err := a.Orchestrator.Execute(ctx, "what is the answer", nil)
			require.NoError(t, err)
			assert.Equal(t, "42", res)

			n, err := a.Memory.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestBuild_OrchestratorActor(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t, false), WithLLM(answer("done")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	id := uuid.New()
	res, err := a.System.Root.RequestFuture(a.OrchestratorPID, messages.ExecuteTask{RequestID: id, Task: "finish"}, 5*time.Second).Result()
	require.NoError(t, err)
	out := res.(messages.TaskResult)
	assert.Equal(t, "done", out.Result)
	assert.Equal(t, models.Completed, a.Orchestrator.Status().State.Status)
}

func TestBuild_RestoresCheckpoint(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, true)

	a, err := Build(ctx, cfg, WithLLM(answer("one")))
	require.NoError(t, err)
	_, err = a.Orchestrator.Execute(ctx, "first", nil)
	require.NoError(t, err)
	taskID := a.Orchestrator.Status().State.CurrentTaskID
	require.NoError(t, a.Close())

	b, err := Build(ctx, cfg, WithLLM(answer("two")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	st := b.Orchestrator.Status().State
	assert.Equal(t, models.Completed, st.Status)
	assert.Equal(t, taskID, st.CurrentTaskID)
}
