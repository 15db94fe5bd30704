package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"go-nexus/internal/app"
	"strings"
)

func (c *cli) spawnCmd() *cobra.Command {
	var (
		taskCtx map[string]string
		list    bool
	)
	cmd := &cobra.Command{
		Use:   "spawn <type> <task>",
		Short: "Run one nanoagent and print its result",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return nil
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				out := cmd.OutOrStdout()
				if list {
					for _, k := range a.Orchestrator.NanoagentKinds() {
						fmt.Fprintf(out, "%-10s %s\n", k.Name, k.Description)
					}
					return nil
				}
				res, err := a.Orchestrator.SpawnNanoagent(cmd.Context(), args[0], strings.Join(args[1:], " "), taskCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, res)
				return nil
			})
		},
	}
	cmd.Flags().StringToStringVar(&taskCtx, "context", nil, "nanoagent context as key=value pairs")
	cmd.Flags().BoolVar(&list, "list", false, "list the nanoagent types")
	return cmd
}
