package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go-nexus/pkg/data"
	"go-nexus/pkg/tools"
	"os"
	"os/exec"
	"time"
)

const (
	defaultShellTimeout = 30
	maxShellOutput      = 10 * 1024
)

type Shell struct {
	tools.Base
	workdir string
}

// NewShell runs commands with bash inside workdir, which is created on demand.
func NewShell(workdir string) *Shell {
	return &Shell{workdir: workdir, Base: tools.NewBase(tools.Descriptor{
		Name:        "shell",
		Description: "Run a bash command and return its combined output",
		Parameters: []tools.Parameter{
			{Name: "command", Type: "string", Description: "Command line passed to bash -c", Required: true},
			{Name: "timeout_seconds", Type: "integer", Description: "Kill the command after this many seconds", Default: defaultShellTimeout},
			{Name: "workdir", Type: "string", Description: "Working directory, defaults to the sandbox"},
		},
	})}
}

func (s *Shell) Execute(ctx context.Context, args map[string]any) (tools.Result, error) {
	dir := tools.String(args, "workdir")
	if dir == "" {
		dir = s.workdir
	}
	if err := createDirectoryIfNotExists(dir); err != nil {
		return tools.Result{}, fmt.Errorf("workdir: %w", err)
	}

	seconds := tools.Int(args, "timeout_seconds", defaultShellTimeout)
	if seconds <= 0 {
		seconds = defaultShellTimeout
	}
	timeout := time.Duration(seconds) * time.Second
	out, code, err := executeCommand(ctx, tools.String(args, "command"), dir, timeout)
	output := map[string]any{"stdout": truncateOutput(out), "exit_code": code}
	if err != nil {
		res := tools.Fail("%v", err)
		res.Output = output
		return res, nil
	}
	return tools.Ok(output), nil
}

func executeCommand(ctx context.Context, command, dir string, timeout time.Duration) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return buf.String(), -1, fmt.Errorf("command timed out after %s", timeout)
	}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return buf.String(), code, fmt.Errorf("output=[%s], exit code=[%d], error=[%w]", truncateOutput(buf.String()), code, err)
	}
	return buf.String(), 0, nil
}

func createDirectoryIfNotExists(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, os.ModePerm)
	}
	return nil
}

func truncateOutput(s string) string {
	t := data.Truncate(s, maxShellOutput)
	if t == s {
		return s
	}
	return t + "\n... [output truncated]"
}
