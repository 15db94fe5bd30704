package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"go-nexus/internal/agents/nanoagent/handler"
	"go-nexus/pkg/logger"
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultPort        = 8080
	DefaultSyncTimeout = 5 * time.Minute
	defaultHistory     = 10
)

// Agent is the read side of the orchestrator. Writes go through the orchestrator actor.
type Agent interface {
	Status() models.Status
	TaskHistory(limit int) []models.TaskHistory
	ReasoningSummary() string
	ReasoningTrace() models.Trace
	Conversation() []models.Message
	ConversationSummary() string
	ClearConversation()
	NanoagentKinds() []handler.KindInfo
	RecallMemory(ctx context.Context, query string, k int) ([]semantic.Record, error)
}

type Config struct {
	Port        int
	SyncTimeout time.Duration // bounds synchronous execute and nanoagent requests
}

type Deps struct {
	Root         *actor.RootContext
	Orchestrator *actor.PID
	Agent        Agent
	Registry     *tools.Registry
	Events       *eventstream.EventStream // optional, feeds /ws
}

type executeRequest struct {
	Task    string            `json:"task"`
	Context map[string]string `json:"context,omitempty"`
	Async   bool              `json:"async,omitempty"`
}

// executeResponse carries the request id and the orchestrator task id. They are the same value.
type executeResponse struct {
	ID      string `json:"id"`
	TaskID  string `json:"task_id"`
	Result  string `json:"result,omitempty"`
	Success bool   `json:"success"`
}

type nanoagentRequest struct {
	Type    string            `json:"type"`
	Task    string            `json:"task"`
	Context map[string]string `json:"context,omitempty"`
}

type nanoagentResponse struct {
	Type    string `json:"type"`
	Result  string `json:"result,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type reasoningResponse struct {
	Summary string       `json:"summary"`
	Trace   models.Trace `json:"trace"`
}

type conversationResponse struct {
	Summary  string           `json:"summary"`
	Messages []models.Message `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	cfg      Config
	root     *actor.RootContext
	pid      *actor.PID
	agent    Agent
	registry *tools.Registry
	events   *eventstream.EventStream
	jobs     *jobsCache
	upgrader websocket.Upgrader
	server   *http.Server
}

func New(cfg Config, deps Deps) *Server {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = DefaultSyncTimeout
	}
	s := &Server{
		cfg:      cfg,
		root:     deps.Root,
		pid:      deps.Orchestrator,
		agent:    deps.Agent,
		registry: deps.Registry,
		events:   deps.Events,
		jobs:     newJobsCache(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	r := chi.NewRouter()
	r.Use(logMiddleware())
	r.Get("/health", s.health)
	r.Get("/ws", s.stream)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/execute", s.execute)
		r.Get("/jobs/{id}", s.getJob)
		r.Get("/status", s.status)
		r.Get("/history", s.history)
		r.Get("/reasoning", s.reasoning)
		r.Get("/conversation", s.conversation)
		r.Delete("/conversation", s.clearConversation)
		r.Get("/tools", s.listTools)
		r.Get("/tools/{name}", s.getTool)
		r.Post("/tools/{name}/execute", s.executeTool)
		r.Get("/nanoagents", s.listNanoagents)
		r.Post("/nanoagents", s.spawnNanoagent)
		r.Get("/memory/search", s.searchMemory)
	})

	s.server = &http.Server{
		Addr:              fmt.Sprint(":", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	req := executeRequest{}
	if err := unmarshalRequestBody(r, &req); err != nil || req.Task == "" {
		log.Debug().Err(err).Msg("cannot parse body")
		renderError(w, r, http.StatusBadRequest, "body must be a JSON object with a non-empty task")
		return
	}

	if req.Async {
		j := s.jobs.add(req.Task)
		go func() {
			res, err := s.runTask(j.ID, req.Task, req.Context)
			s.jobs.finish(j.ID, res, err)
		}()
		log.Debug().Str(logger.RequestTaskID, j.ID.String()).Msg("agent job has been started")
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, struct {
			Id string `json:"id"`
		}{j.ID.String()})
		return
	}

	id := uuid.New()
	res, err := s.runTask(id, req.Task, req.Context)
	if err != nil && res == "" {
		renderError(w, r, http.StatusGatewayTimeout, err.Error())
		return
	}
	render.JSON(w, r, executeResponse{ID: id.String(), TaskID: id.String(), Result: res, Success: err == nil})
}

// runTask submits the task to the orchestrator actor. An empty result with an error means the actor never answered.
func (s *Server) runTask(id uuid.UUID, task string, taskCtx map[string]string) (string, error) {
	future := s.root.RequestFuture(s.pid, messages.ExecuteTask{RequestID: id, Task: task, Context: taskCtx}, s.cfg.SyncTimeout)
	res, err := future.Result()
	if err != nil {
		log.Error().Str(logger.RequestTaskID, id.String()).Err(err).Msg("unable to get result from actor")
		return "", fmt.Errorf("orchestrator: %w", err)
	}
	out, ok := res.(messages.TaskResult)
	if !ok {
		return "", fmt.Errorf("orchestrator: unexpected response %T", res)
	}
	return out.Result, out.Err
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		log.Debug().Msg("cannot parse id")
		renderError(w, r, http.StatusBadRequest, "unable to parse id")
		return
	}
	j, ok := s.jobs.get(id)
	if !ok {
		log.Debug().Str(logger.RequestTaskID, idParam).Msg("cannot find id")
		renderError(w, r, http.StatusNotFound, "job not found")
		return
	}
	render.JSON(w, r, j)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.agent.Status())
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	render.JSON(w, r, s.agent.TaskHistory(limit))
}

func (s *Server) reasoning(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, reasoningResponse{Summary: s.agent.ReasoningSummary(), Trace: s.agent.ReasoningTrace()})
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, conversationResponse{Summary: s.agent.ConversationSummary(), Messages: s.agent.Conversation()})
}

func (s *Server) clearConversation(w http.ResponseWriter, r *http.Request) {
	s.agent.ClearConversation()
	render.NoContent(w, r)
}

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	descs := s.registry.Descriptors()
	if q := r.URL.Query().Get("q"); q != "" {
		wanted := map[string]bool{}
		for _, name := range s.registry.Search(q) {
			wanted[name] = true
		}
		filtered := make([]tools.Descriptor, 0, len(wanted))
		for _, d := range descs {
			if wanted[d.Name] {
				filtered = append(filtered, d)
			}
		}
		descs = filtered
	}
	render.JSON(w, r, descs)
}

func (s *Server) getTool(w http.ResponseWriter, r *http.Request) {
	info, err := s.registry.Info(chi.URLParam(r, "name"))
	if err != nil {
		renderError(w, r, http.StatusNotFound, err.Error())
		return
	}
	render.JSON(w, r, info)
}

// executeTool returns the tool Result as is, including failures.
func (s *Server) executeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	args := map[string]any{}
	if err := unmarshalRequestBody(r, &args); err != nil {
		renderError(w, r, http.StatusBadRequest, "body must be a JSON object of arguments")
		return
	}
	if _, ok := s.registry.Get(name); !ok {
		render.Status(r, http.StatusNotFound)
	}
	render.JSON(w, r, s.registry.Execute(r.Context(), name, args))
}

func (s *Server) listNanoagents(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.agent.NanoagentKinds())
}

func (s *Server) spawnNanoagent(w http.ResponseWriter, r *http.Request) {
	req := nanoagentRequest{}
	if err := unmarshalRequestBody(r, &req); err != nil || req.Type == "" {
		renderError(w, r, http.StatusBadRequest, "body must be a JSON object with a type and a task")
		return
	}

	future := s.root.RequestFuture(s.pid, messages.SpawnNanoagent{Kind: req.Type, Task: req.Task, Context: req.Context}, s.cfg.SyncTimeout)
	res, err := future.Result()
	if err != nil {
		log.Error().Str(logger.KindField, req.Type).Err(err).Msg("unable to get nanoagent result from actor")
		renderError(w, r, http.StatusGatewayTimeout, err.Error())
		return
	}
	out, ok := res.(messages.NanoagentResult)
	if !ok {
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("unexpected response %T", res))
		return
	}
	if out.Err != nil {
		if errors.Is(out.Err, models.ErrValidation) {
			render.Status(r, http.StatusBadRequest)
		}
		render.JSON(w, r, nanoagentResponse{Type: req.Type, Success: false, Error: out.Err.Error()})
		return
	}
	render.JSON(w, r, nanoagentResponse{Type: req.Type, Result: out.Result, Success: true})
}

func (s *Server) searchMemory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		renderError(w, r, http.StatusBadRequest, "q is required")
		return
	}
	k := semantic.DefaultK
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			renderError(w, r, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}
	recs, err := s.agent.RecallMemory(r.Context(), q, k)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, models.ErrValidation) {
			code = http.StatusServiceUnavailable
		}
		renderError(w, r, code, err.Error())
		return
	}
	if recs == nil {
		recs = []semantic.Record{}
	}
	render.JSON(w, r, recs)
}

func renderError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, errorResponse{Error: msg})
}

func logMiddleware() func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RefererHandler("referer"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration", duration.Milliseconds()).
			Msg("REQ")
	}))

	return c.Then
}

func unmarshalRequestBody(req *http.Request, output interface{}) error {
	if req.Body == nil {
		return errors.New("invalid body in request")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if err = req.Body.Close(); err != nil {
		return err
	}
	if err = json.Unmarshal(body, output); err != nil {
		return err
	}

	return nil
}
