package actor

import (
	"context"
	"errors"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
	"sync"
	"testing"
	"time"
)

type fakeAgent struct {
	mu      sync.Mutex
	running int
	maxSeen int
	block   chan struct{}
}

func (f *fakeAgent) Execute(_ context.Context, task string, _ map[string]string) (string, error) {
	f.mu.Lock()
	f.running++
	if f.running > f.maxSeen {
		f.maxSeen = f.running
	}
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.running--
	f.mu.Unlock()
	if task == "fail" {
		return "Error executing task: nope", errors.New("nope")
	}
	return "done: " + task, nil
}

func (f *fakeAgent) SpawnNanoagent(_ context.Context, kind, task string, _ map[string]string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	return kind + "/" + task, nil
}

func (f *fakeAgent) Status() models.Status {
	return models.Status{AgentID: "nexus", State: models.AgentState{Status: models.Idle}}
}

func spawn(t *testing.T, agent Agent) (*actor.RootContext, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	t.Cleanup(system.Shutdown)
	return system.Root, system.Root.Spawn(actor.PropsFromProducer(New(agent)))
}

func TestOrchestrator_ExecuteTask(t *testing.T) {
	root, pid := spawn(t, &fakeAgent{})
	id := uuid.New()

	res, err := root.RequestFuture(pid, messages.ExecuteTask{RequestID: id, Task: "x"}, time.Second).Result()
	require.NoError(t, err)
	out := res.(messages.TaskResult)
	assert.Equal(t, id, out.RequestID)
	assert.Equal(t, "done: x", out.Result)
	assert.NoError(t, out.Err)

	res, err = root.RequestFuture(pid, messages.ExecuteTask{RequestID: id, Task: "fail"}, time.Second).Result()
	require.NoError(t, err)
	assert.Error(t, res.(messages.TaskResult).Err)
}

func TestOrchestrator_SerializesTasks(t *testing.T) {
	agent := &fakeAgent{}
	root, pid := spawn(t, agent)

	futures := make([]*actor.Future, 5)
	for i := range futures {
		futures[i] = root.RequestFuture(pid, messages.ExecuteTask{RequestID: uuid.New(), Task: "t"}, 5*time.Second)
	}
	for _, f := range futures {
		_, err := f.Result()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, agent.maxSeen)
}

func TestOrchestrator_StatusAndSpawn(t *testing.T) {
	agent := &fakeAgent{block: make(chan struct{})}
	root, pid := spawn(t, agent)

	spawnFuture := root.RequestFuture(pid, messages.SpawnNanoagent{Kind: "plan", Task: "goal"}, 5*time.Second)

	// a blocked spawn does not hold up the mailbox
	res, err := root.RequestFuture(pid, messages.GetStatus{}, time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, "nexus", res.(messages.StatusResponse).Status.AgentID)

	close(agent.block)
	res, err = spawnFuture.Result()
	require.NoError(t, err)
	assert.Equal(t, "plan/goal", res.(messages.NanoagentResult).Result)
}
