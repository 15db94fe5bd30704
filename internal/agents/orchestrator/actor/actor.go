package actor

import (
	"context"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go-nexus/internal/agents/orchestrator"
	"go-nexus/pkg/logger"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
)

// Agent is the part of the orchestrator the actor drives.
type Agent interface {
	Execute(ctx context.Context, task string, taskCtx map[string]string) (string, error)
	SpawnNanoagent(ctx context.Context, kind, task string, taskCtx map[string]string) (string, error)
	Status() models.Status
}

// Orchestrator processes ExecuteTask messages one at a time from its mailbox. Nanoagent spawns
// run beside the mailbox so they never wait behind a long task.
type Orchestrator struct {
	agent Agent
}

func New(agent Agent) actor.Producer {
	return func() actor.Actor {
		return &Orchestrator{agent: agent}
	}
}

func (o *Orchestrator) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{logger.ActorIDField: ac.Self().GetId(), logger.AgentNameField: "orchestrator"}).Logger()
	switch msg := ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting actor")
	case *actor.Stopping:
		l.Debug().Msg("stopping actor")
	case *actor.Stopped:
		l.Debug().Msg("stopped actor")
	case *actor.Restarting:
		l.Debug().Msg("restarting actor")
	case messages.ExecuteTask:
		l.Debug().Str(logger.RequestTaskID, msg.RequestID.String()).Msg("ExecuteTask received")
		ctx := context.Background()
		if msg.RequestID != uuid.Nil {
			ctx = orchestrator.WithTaskID(ctx, msg.RequestID.String())
		}
		res, err := o.agent.Execute(ctx, msg.Task, msg.Context)
		if ac.Sender() != nil {
			ac.Respond(messages.TaskResult{RequestID: msg.RequestID, Result: res, Err: err})
		}
	case messages.GetStatus:
		ac.Respond(messages.StatusResponse{Status: o.agent.Status()})
	case messages.SpawnNanoagent:
		l.Debug().Str(logger.KindField, msg.Kind).Msg("SpawnNanoagent received")
		sender := ac.Sender()
		root := ac.ActorSystem().Root
		go func() {
			res, err := o.agent.SpawnNanoagent(context.Background(), msg.Kind, msg.Task, msg.Context)
			if sender != nil {
				root.Send(sender, messages.NanoagentResult{Kind: msg.Kind, Result: res, Err: err})
			}
		}()
	default:
		l.Warn().Msgf("unknown message: %v", msg)
	}
}
