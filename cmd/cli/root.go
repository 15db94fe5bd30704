package main

import (
	"context"
	"github.com/spf13/cobra"
	"go-nexus/internal/app"
	"go-nexus/internal/config"
	"go-nexus/pkg/logger"
	"io"
)

const version = "0.1.0"

// cli carries what the root command resolves before any subcommand runs.
type cli struct {
	cfgFile  string
	logLevel string

	cfg       *config.Config
	logCloser io.Closer
	// build is swapped in tests
	build func(ctx context.Context, cfg *config.Config) (*app.App, error)
}

func newRootCmd() *cobra.Command {
	c := &cli{build: func(ctx context.Context, cfg *config.Config) (*app.App, error) {
		return app.Build(ctx, cfg)
	}}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nexus",
		Short: "Nexus - autonomous task agent",
		Long: `Nexus reasons about a task step by step, calling tools and delegating
narrow subtasks to short-lived nanoagents.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c.logCloser != nil {
				return c.logCloser.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $NEXUS_CONFIG)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(c.runCmd(), c.chatCmd(), c.toolsCmd(), c.spawnCmd(), c.memoryCmd())
	return root
}

func (c *cli) setup() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	closer, err := logger.NewGlobal(cfg.LoggerConfig())
	if err != nil {
		return err
	}
	c.cfg, c.logCloser = cfg, closer
	return nil
}

// withApp builds the agent, runs fn and tears the agent down.
func (c *cli) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := c.build(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
