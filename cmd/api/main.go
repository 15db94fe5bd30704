package main

import (
	"context"
	"flag"
	zLog "github.com/rs/zerolog/log"
	"go-nexus/internal/api"
	"go-nexus/internal/app"
	"go-nexus/internal/config"
	"go-nexus/pkg/logger"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file, defaults to $NEXUS_CONFIG")
	flag.Parse()

	log.Println("starting server")
	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		log.Panicf("failed to load config: %v", err)
	}
	closer, err := logger.NewGlobal(cfg.LoggerConfig())
	if err != nil {
		log.Panicf("failed to initialize logger: %v", err)
	}
	defer closer.Close()

	loader.Watch(func(c *config.Config) {
		if err := logger.SetLevel(c.Logging.Level); err != nil {
			zLog.Error().Err(err).Msg("unable to apply log level")
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		zLog.Panic().Err(err).Msg("unable to build agent")
	}

	server := api.New(api.Config{Port: cfg.Server.Port, SyncTimeout: cfg.Server.SyncTimeout}, api.Deps{
		Root:         a.System.Root,
		Orchestrator: a.OrchestratorPID,
		Agent:        a.Orchestrator,
		Registry:     a.Registry,
		Events:       a.System.EventStream,
	})

	go func() {
		err := server.Start()
		if err != nil {
			zLog.Panic().Err(err).Msg("server crash")
		}
	}()

	<-ctx.Done()

	stop()
	zLog.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		zLog.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := a.Close(); err != nil {
		zLog.Error().Err(err).Msg("unable to close agent")
	}

	zLog.Info().Msg("server exiting")
}
