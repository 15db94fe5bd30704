package main

import (
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"go-nexus/internal/app"
	"strings"
)

func (c *cli) runCmd() *cobra.Command {
	var taskCtx map[string]string
	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Execute a single task and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Orchestrator.Execute(cmd.Context(), strings.Join(args, " "), taskCtx)
				if err != nil {
					return errors.New(res)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringToStringVar(&taskCtx, "context", nil, "task context as key=value pairs")
	return cmd
}
