package api

import (
	"encoding/json"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go-nexus/pkg/messages"
	"net/http"
	"time"
)

const (
	streamBuffer = 64
	writeWait    = 10 * time.Second
)

type streamEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

type streamRequest struct {
	Task    string            `json:"task"`
	Context map[string]string `json:"context,omitempty"`
}

type streamResult struct {
	ID      string `json:"id"`
	Task    string `json:"task"`
	Result  string `json:"result"`
	Success bool   `json:"success"`
}

// eventType names the agent events forwarded to clients. Everything else on the stream is ignored.
func eventType(evt interface{}) (string, bool) {
	switch evt.(type) {
	case messages.TaskStarted:
		return "task_started", true
	case messages.StepRecorded:
		return "step", true
	case messages.ReasoningFinished:
		return "reasoning_finished", true
	case messages.TaskFinished:
		return "task_finished", true
	}
	return "", false
}

// stream upgrades to a WebSocket that relays agent events. Clients may send {"task": "..."} to run a task,
// the outcome arrives as a "result" event.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}
	l := log.With().Str("ip", r.RemoteAddr).Logger()
	l.Info().Msg("stream client connected")

	out := make(chan streamEvent, streamBuffer)
	done := make(chan struct{})
	send := func(typ string, data interface{}) {
		select {
		case out <- streamEvent{Type: typ, Data: data, Timestamp: time.Now().UnixMilli()}:
		case <-done:
		default:
			l.Warn().Str("type", typ).Msg("stream client too slow, dropping event")
		}
	}

	var sub *eventstream.Subscription
	if s.events != nil {
		sub = s.events.Subscribe(func(evt interface{}) {
			if typ, ok := eventType(evt); ok {
				send(typ, evt)
			}
		})
	}
	defer func() {
		close(done)
		if sub != nil {
			s.events.Unsubscribe(sub)
		}
		_ = conn.Close()
		l.Info().Msg("stream client disconnected")
	}()

	go func() {
		for {
			select {
			case e := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					l.Debug().Err(err).Msg("stream write failed")
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("websocket error")
			}
			return
		}
		req := streamRequest{}
		if err := json.Unmarshal(message, &req); err != nil || req.Task == "" {
			send("error", errorResponse{Error: "task is required"})
			continue
		}
		go func() {
			id := uuid.New()
			res, err := s.runTask(id, req.Task, req.Context)
			send("result", streamResult{ID: id.String(), Task: req.Task, Result: res, Success: err == nil})
		}()
	}
}
