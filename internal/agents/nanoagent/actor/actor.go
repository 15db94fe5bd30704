package actor

import (
	"context"
	"fmt"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
	"go-nexus/internal/agents/nanoagent/handler"
	"go-nexus/pkg/logger"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
)

// Nanoagent runs a single RunNanoagent request, responds and stops itself.
type Nanoagent struct {
	kind    string
	handler handler.Handler
	state   models.State
}

func New(kind string, h handler.Handler) actor.Producer {
	return func() actor.Actor {
		return &Nanoagent{
			kind:    kind,
			handler: h,
			state:   models.Idle,
		}
	}
}

func (agent *Nanoagent) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{logger.ActorIDField: ac.Self().GetId(), logger.AgentNameField: "nanoagent", logger.KindField: agent.kind}).Logger()
	switch msg := ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting actor")
	case *actor.Stopping:
		l.Debug().Msg("stopping actor")
	case *actor.Stopped:
		l.Debug().Msg("stopped actor")
	case *actor.Restarting:
		l.Debug().Msg("restarting actor")
	case messages.RunNanoagent:
		l.Debug().Msgf("RunNanoagent received: %v", msg.Task)
		agent.state = models.Reasoning

		ctx, cancel := context.WithDeadline(context.Background(), msg.Deadline)
		res := agent.run(ctx, handler.Request{Task: msg.Task, Context: msg.Context})
		cancel()

		if res.Error != nil {
			agent.state = models.Failed
			l.Error().Err(res.Error).Msg("nanoagent failed")
		} else {
			agent.state = models.Completed
			l.Info().Msg("nanoagent finished")
		}
		ac.Respond(messages.NanoagentResult{Kind: agent.kind, Result: res.Answer, Err: res.Error})
		ac.Stop(ac.Self())
	default:
		l.Warn().Msgf("unknown message: %v", msg)
	}
}

func (agent *Nanoagent) run(ctx context.Context, req handler.Request) (res models.HandlerResult) {
	defer func() {
		if p := recover(); p != nil {
			res = models.HandlerResult{Error: fmt.Errorf("nanoagent %s panicked: %v", agent.kind, p)}
		}
	}()
	return agent.handler.Handle(ctx, req)
}
