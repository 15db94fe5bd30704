package main

import (
	"bufio"
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"go-nexus/internal/app"
	"go-nexus/pkg/models"
	"io"
	"strings"
)

const chatHelp = `Commands:
  /help       show this help
  /status     agent status
  /history    recent tasks
  /reasoning  last reasoning trace
  /clear      clear the conversation
  /tools      list tools
  /exit       quit
Anything else is executed as a task.`

const chatHistory = 5

// chatAgent is what the chat loop needs from the orchestrator.
type chatAgent interface {
	Execute(ctx context.Context, task string, taskCtx map[string]string) (string, error)
	Status() models.Status
	TaskHistory(limit int) []models.TaskHistory
	ReasoningSummary() string
	ClearConversation()
}

func (c *cli) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				return chat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.Orchestrator, a.Registry.Summary)
			})
		},
	}
}

// chat reads one line per turn until /exit or end of input.
func chat(ctx context.Context, in io.Reader, out io.Writer, agent chatAgent, toolSummary func() string) error {
	fmt.Fprintln(out, "Nexus interactive session. Type /help for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/exit" || line == "/quit":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		case line == "/help":
			fmt.Fprintln(out, chatHelp)
		case line == "/status":
			s := agent.Status()
			fmt.Fprintf(out, "%s (%s): %s, %d tasks, %d tools\n", s.Name, s.AgentID, s.State.Status, s.TasksCompleted, len(s.Tools))
		case line == "/history":
			h := agent.TaskHistory(chatHistory)
			if len(h) == 0 {
				fmt.Fprintln(out, "No tasks yet")
			}
			for _, t := range h {
				mark := "ok"
				if !t.Success {
					mark = "failed"
				}
				fmt.Fprintf(out, "[%s] %s (%d steps)\n", mark, t.Task, t.ReasoningSteps)
			}
		case line == "/reasoning":
			fmt.Fprintln(out, agent.ReasoningSummary())
		case line == "/clear":
			agent.ClearConversation()
			fmt.Fprintln(out, "Conversation cleared")
		case line == "/tools":
			fmt.Fprintln(out, toolSummary())
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(out, "Unknown command %s, type /help\n", line)
		default:
			res, _ := agent.Execute(ctx, line, nil)
			fmt.Fprintln(out, res)
		}
	}
}
