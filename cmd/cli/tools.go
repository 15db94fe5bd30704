package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"go-nexus/internal/app"
	"strings"
)

// toolsCmd works on a bare registry, so it needs no model credentials. memory_search is not available here.
func (c *cli) toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools [query]",
		Short: "List the available tools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := app.NewRegistry(c.cfg, nil)
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, r.Summary())
				return nil
			}
			names := r.Search(args[0])
			if len(names) == 0 {
				fmt.Fprintf(out, "No tools match %q\n", args[0])
				return nil
			}
			for _, name := range names {
				info, err := r.Info(name)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "- "+info.Signature)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "exec <name> [json-args]",
		Short: "Execute a tool directly and print its result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{}
			if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("arguments must be a JSON object: %w", err)
				}
			}
			res := app.NewRegistry(c.cfg, nil).Execute(cmd.Context(), args[0], toolArgs)
			b, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	})
	return cmd
}
