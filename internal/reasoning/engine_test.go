package reasoning

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-nexus/pkg/data"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
	"go-nexus/pkg/tools/builtin"
	"strings"
	"sync"
	"testing"
)

// scripted replays responses in order and repeats the last one.
type scripted struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *scripted) Complete(_ context.Context, msgs []llm.Message, _ ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, msgs[len(msgs)-1].Content)
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

type recorder struct {
	mu     sync.Mutex
	events []interface{}
}

func (r *recorder) Publish(evt interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func registry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(builtin.NewHash())
	r.Register(builtin.NewBase64())
	return r
}

func TestReason_HashScenario(t *testing.T) {
	svc := &scripted{responses: []string{
		"Thought: I need the sha256 digest\nAction: hash\nAction Input: {\"text\": \"abc\", \"algorithm\": \"sha256\"}",
		"Thought: I have it\nFinal Answer: The SHA-256 hash of 'abc' is ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}}
	e := New(svc, registry(), Config{MaxSteps: 5})

	answer, err := e.Reason(context.Background(), "hash the text 'abc' using sha256", "")
	require.NoError(t, err)
	assert.Contains(t, answer, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	assert.Equal(t, Answered, e.State())

	trace := e.Trace()
	require.Len(t, trace.Steps, 2)
	first := trace.Steps[0]
	require.NotNil(t, first.Action)
	assert.Equal(t, "hash", first.Action.Tool)
	assert.Equal(t, map[string]any{"text": "abc", "algorithm": "sha256"}, first.Action.Arguments)
	require.NotNil(t, first.Observation)
	assert.Contains(t, *first.Observation, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	assert.False(t, first.IsFinal)
	assert.True(t, trace.Steps[1].IsFinal)
	assert.Equal(t, 1, trace.Steps[1].Index)

	// the second prompt carries the first observation back to the model
	assert.Contains(t, svc.prompts[1], "Observation: Success:")
}

func TestReason_StepLimitExactlyN(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		svc := &scripted{responses: []string{"Thought: again\nAction: base64\nAction Input: {\"text\": \"hi\"}"}}
		e := New(svc, registry(), Config{MaxSteps: n})

		answer, err := e.Reason(context.Background(), "loop forever", "")
		require.NoError(t, err)
		assert.Equal(t, StepLimitExceeded, e.State())
		assert.Equal(t, n, svc.calls)
		assert.Len(t, e.Trace().Steps, n)
		assert.Contains(t, answer, "Last observation: Success:")
		for _, s := range e.Trace().Steps {
			assert.False(t, s.IsFinal)
		}
	}
}

func TestReason_DefaultStepBudget(t *testing.T) {
	svc := &scripted{responses: []string{"just rambling"}}
	e := New(svc, registry(), Config{})

	_, err := e.Reason(context.Background(), "task", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSteps, svc.calls)
}

func TestReason_UnknownToolIsObserved(t *testing.T) {
	svc := &scripted{responses: []string{
		"Action: teleport\nAction Input: {}",
		"Final Answer: could not teleport",
	}}
	e := New(svc, registry(), Config{MaxSteps: 5})

	answer, err := e.Reason(context.Background(), "go to mars", "")
	require.NoError(t, err)
	assert.Equal(t, "could not teleport", answer)
	obs := e.Trace().Steps[0].Observation
	require.NotNil(t, obs)
	assert.Equal(t, "Error: Tool not found: teleport", *obs)
}

func TestReason_ValidationFailureIsObserved(t *testing.T) {
	svc := &scripted{responses: []string{
		"Action: hash\nAction Input: {\"algorithm\": \"md5\"}",
		"Final Answer: missing text",
	}}
	e := New(svc, registry(), Config{MaxSteps: 5})

	_, err := e.Reason(context.Background(), "hash", "")
	require.NoError(t, err)
	assert.Contains(t, *e.Trace().Steps[0].Observation, "Missing required parameter: text")
}

func TestReason_MalformedResponseIsRecovered(t *testing.T) {
	svc := &scripted{responses: []string{"I think the answer is 4", "Final Answer: 4"}}
	e := New(svc, registry(), Config{MaxSteps: 5})

	answer, err := e.Reason(context.Background(), "2+2", "")
	require.NoError(t, err)
	assert.Equal(t, "4", answer)
	steps := e.Trace().Steps
	require.Len(t, steps, 2)
	assert.Contains(t, *steps[0].Observation, "Invalid response format")
}

func TestReason_ServiceFailureIsFatal(t *testing.T) {
	svc := &scripted{err: models.NewError(models.KindService, "complete", errors.New("503"))}
	e := New(svc, registry(), Config{MaxSteps: 5})

	_, err := e.Reason(context.Background(), "anything", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrFatal)
	assert.ErrorIs(t, err, models.ErrService)
	assert.Equal(t, Fatal, e.State())
	assert.Equal(t, 1, svc.calls)
}

func TestReason_ObservationTruncated(t *testing.T) {
	svc := &scripted{responses: []string{
		"Action: base64\nAction Input: {\"text\": \"" + strings.Repeat("a", 300) + "\"}",
		"Final Answer: ok",
	}}
	e := New(svc, registry(), Config{MaxSteps: 3, Budget: data.Budget{MaxChars: 50}})

	_, err := e.Reason(context.Background(), "encode", "")
	require.NoError(t, err)
	obs := *e.Trace().Steps[0].Observation
	assert.Contains(t, obs, "truncated")
	assert.Less(t, len(obs), 120)
}

func TestReason_TraceResetPerRun(t *testing.T) {
	svc := &scripted{responses: []string{"Final Answer: one"}}
	e := New(svc, registry(), Config{MaxSteps: 3})

	_, err := e.Reason(context.Background(), "first", "")
	require.NoError(t, err)
	_, err = e.Reason(context.Background(), "second", "")
	require.NoError(t, err)

	trace := e.Trace()
	assert.Equal(t, "second", trace.Task)
	require.Len(t, trace.Steps, 1)
	assert.Equal(t, 0, trace.Steps[0].Index)
}

func TestReason_ContextInPrompt(t *testing.T) {
	svc := &scripted{responses: []string{"Final Answer: ok"}}
	e := New(svc, registry(), Config{MaxSteps: 1})

	_, err := e.Reason(context.Background(), "task", "user: alice\nlang: go")
	require.NoError(t, err)
	assert.Contains(t, svc.prompts[0], "Context:\nuser: alice\nlang: go")
}

func TestReason_PublishesEvents(t *testing.T) {
	svc := &scripted{responses: []string{"Action: base64\nAction Input: {\"text\": \"x\"}", "Final Answer: done"}}
	rec := &recorder{}
	e := New(svc, registry(), Config{MaxSteps: 3}, WithPublisher(rec))

	_, err := e.Reason(context.Background(), "encode x", "")
	require.NoError(t, err)

	require.Len(t, rec.events, 3)
	assert.IsType(t, messages.StepRecorded{}, rec.events[0])
	assert.IsType(t, messages.StepRecorded{}, rec.events[1])
	finished := rec.events[2].(messages.ReasoningFinished)
	assert.Equal(t, string(Answered), finished.Outcome)
	assert.Equal(t, 2, finished.Steps)
}

func TestSummary_LastFiveSteps(t *testing.T) {
	svc := &scripted{responses: []string{"Thought: step\nAction: base64\nAction Input: {\"text\": \"x\"}"}}
	e := New(svc, registry(), Config{MaxSteps: 8})
	assert.Equal(t, "No reasoning steps recorded", e.Summary())

	_, err := e.Reason(context.Background(), "loop", "")
	require.NoError(t, err)

	s := e.Summary()
	assert.Contains(t, s, "8 steps")
	assert.NotContains(t, s, "Step 3:")
	assert.Contains(t, s, "Step 4:")
	assert.Contains(t, s, "Step 8:")
	assert.Equal(t, 5, strings.Count(s, "Action: base64"))
}
