package api

import (
	"context"
	"encoding/json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-nexus/internal/app"
	"go-nexus/internal/config"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type answer string

func (a answer) Complete(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return "Final Answer: " + string(a), nil
}

func newServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("NEXUS_AGENT_TOKEN_ENCODING", "approx")
	t.Setenv("NEXUS_MEMORY_ENABLED", "false")
	t.Setenv("NEXUS_TOOLS_SHELL_DIR", filepath.Join(t.TempDir(), "ws"))
	cfg, err := config.Load("")
	require.NoError(t, err)

	a, err := app.Build(context.Background(), cfg, app.WithLLM(answer("42")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return New(Config{SyncTimeout: 5 * time.Second}, Deps{
		Root:         a.System.Root,
		Orchestrator: a.OrchestratorPID,
		Agent:        a.Orchestrator,
		Registry:     a.Registry,
		Events:       a.System.EventStream,
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestExecute_Sync(t *testing.T) {
	s := newServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/execute", `{"task": "what is the answer", "context": {"user": "bob"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := executeResponse{}
	decode(t, rec, &res)
	assert.Equal(t, "42", res.Result)
	assert.True(t, res.Success)
	require.NotEmpty(t, res.TaskID)

	rec = do(t, s, http.MethodGet, "/api/v1/status", "")
	status := models.Status{}
	decode(t, rec, &status)
	assert.Equal(t, 1, status.TasksCompleted)
	assert.Equal(t, models.Completed, status.State.Status)

	rec = do(t, s, http.MethodGet, "/api/v1/history?limit=5", "")
	var history []models.TaskHistory
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "what is the answer", history[0].Task)
	assert.Equal(t, res.TaskID, history[0].TaskID)

	rec = do(t, s, http.MethodGet, "/api/v1/reasoning", "")
	reasoning := reasoningResponse{}
	decode(t, rec, &reasoning)
	assert.Contains(t, reasoning.Summary, "Task: what is the answer")
	assert.Len(t, reasoning.Trace.Steps, 1)

	rec = do(t, s, http.MethodGet, "/api/v1/memory/search?q=answer&k=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []map[string]interface{}
	decode(t, rec, &recs)
	assert.Len(t, recs, 1)
}

func TestExecute_BadRequests(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/v1/execute", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/v1/execute", `{"task": ""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/history?limit=many", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/memory/search", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/jobs/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/jobs/1b4e28ba-2fa1-11d2-883f-0016d3cca427", "").Code)
}

func TestExecute_Async(t *testing.T) {
	s := newServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/execute", `{"task": "later", "async": true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started struct {
		Id string `json:"id"`
	}
	decode(t, rec, &started)
	require.NotEmpty(t, started.Id)

	require.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, "/api/v1/jobs/"+started.Id, "")
		j := job{}
		if err := json.Unmarshal(rec.Body.Bytes(), &j); err != nil {
			return false
		}
		return j.Status == jobCompleted && j.Result == "42"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestConversation(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/v1/execute", `{"task": "hello"}`).Code)

	rec := do(t, s, http.MethodGet, "/api/v1/conversation", "")
	conv := conversationResponse{}
	decode(t, rec, &conv)
	assert.Len(t, conv.Messages, 2)
	assert.Equal(t, "USER: hello\nASSISTANT: 42", conv.Summary)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/v1/conversation", "").Code)
	decode(t, do(t, s, http.MethodGet, "/api/v1/conversation", ""), &conv)
	assert.Empty(t, conv.Messages)
	assert.Equal(t, "No conversation history", conv.Summary)
}

func TestTools(t *testing.T) {
	s := newServer(t)

	var descs []tools.Descriptor
	decode(t, do(t, s, http.MethodGet, "/api/v1/tools", ""), &descs)
	assert.Len(t, descs, len(s.registry.List()))

	decode(t, do(t, s, http.MethodGet, "/api/v1/tools?q=base64", ""), &descs)
	require.Len(t, descs, 1)
	assert.Equal(t, "base64", descs[0].Name)

	rec := do(t, s, http.MethodGet, "/api/v1/tools/hash", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := tools.Info{}
	decode(t, rec, &info)
	assert.True(t, strings.HasPrefix(info.Signature, "hash(text: string*"))

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/tools/teleport", "").Code)

	rec = do(t, s, http.MethodPost, "/api/v1/tools/hash/execute", `{"text": "abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := tools.Result{}
	decode(t, rec, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", res.Output.(map[string]interface{})["hash"])

	rec = do(t, s, http.MethodPost, "/api/v1/tools/hash/execute", `{}`)
	decode(t, rec, &res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "text")

	rec = do(t, s, http.MethodPost, "/api/v1/tools/teleport/execute", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	decode(t, rec, &res)
	assert.Contains(t, res.Error, "not found")
}

func TestNanoagents(t *testing.T) {
	s := newServer(t)

	var kinds []map[string]string
	decode(t, do(t, s, http.MethodGet, "/api/v1/nanoagents", ""), &kinds)
	assert.NotEmpty(t, kinds)

	rec := do(t, s, http.MethodPost, "/api/v1/nanoagents", `{"type": "unknown_kind", "task": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := nanoagentResponse{}
	decode(t, rec, &res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown nanoagent type")

	dir := t.TempDir()
	body, err := json.Marshal(nanoagentRequest{Type: "scan", Task: dir})
	require.NoError(t, err)
	rec = do(t, s, http.MethodPost, "/api/v1/nanoagents", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &res)
	assert.True(t, res.Success)
	assert.Contains(t, res.Result, "(0 entries)")

	// nanoagents leave the agent's history alone
	var history []models.TaskHistory
	decode(t, do(t, s, http.MethodGet, "/api/v1/history", ""), &history)
	assert.Empty(t, history)
}

func TestStream(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(streamRequest{Task: "stream me"}))

	seen := map[string]bool{}
	for !seen["result"] {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var evt struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&evt))
		seen[evt.Type] = true
		if evt.Type == "result" {
			res := streamResult{}
			require.NoError(t, json.Unmarshal(evt.Data, &res))
			assert.Equal(t, "42", res.Result)
			assert.True(t, res.Success)
		}
	}
	assert.True(t, seen["task_started"])
	assert.True(t, seen["step"])
	assert.True(t, seen["task_finished"])
}
