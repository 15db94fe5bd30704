package logger

import (
	"fmt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"io"
	"os"
	"path/filepath"
)

const (
	AgentNameField   = "agent"
	TaskField        = "task"
	ActorIDField     = "actor"
	RequestTaskID    = "task_id"
	ToolField        = "tool"
	KindField        = "kind"
	StepField        = "step"
	ExecutionIDField = "execution_id"
)

type Config struct {
	Level  string
	Pretty bool
	File   string // optional, appended to
}

// NewGlobal configures the global zerolog logger. The returned closer releases the log file, if any.
func NewGlobal(cfg Config) (io.Closer, error) {
	l, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zerolog.SetGlobalLevel(l)

	var console io.Writer = os.Stderr
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if cfg.File == "" {
		log.Logger = log.Output(console)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(console, f))
	return f, nil
}

// SetLevel changes the global level at runtime, used on config reloads.
func SetLevel(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	return nil
}
