package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"go-nexus/internal/app"
	"go-nexus/pkg/memory/semantic"
	"strings"
)

func (c *cli) memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the semantic memory",
	}

	var k int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the stored tasks most similar to the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := app.NewStrategy(c.cfg)
			if err != nil {
				return err
			}
			mem, _, db, err := app.OpenMemory(cmd.Context(), c.cfg, strategy)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			recs, err := mem.Query(cmd.Context(), strings.Join(args, " "), k, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No relevant memories found")
				return nil
			}
			for i, r := range recs {
				fmt.Fprintf(out, "%d. [%.2f] %s\n", i+1, r.Score, r.Content)
			}
			return nil
		},
	}
	search.Flags().IntVarP(&k, "k", "k", semantic.DefaultK, "number of results")

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mem, _, db, err := app.OpenMemory(cmd.Context(), c.cfg, semantic.Keyword{})
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
			n, err := mem.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.AddCommand(search, count)
	return cmd
}
