package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ==============================
// Commands (side effects)
// ==============================

// CommandSpec is the ordered list of commands run on every trigger: the
// primary command first, then each extra command in declared order.
type CommandSpec struct {
	Primary string
	Extra   []string
}

// All returns every configured command in execution order. Empty strings are
// skipped so an unset primary does not spawn anything.
func (s CommandSpec) All() []string {
	all := make([]string, 0, 1+len(s.Extra))
	if s.Primary != "" {
		all = append(all, s.Primary)
	}
	for _, c := range s.Extra {
		if c != "" {
			all = append(all, c)
		}
	}
	return all
}

// splitCommand turns a configured command string into argv.
//
// Strings that contain a space and do not start with "/" are split on
// whitespace. Quotes are not interpreted: "notify-send 'Hello' 'World!'"
// becomes ["notify-send", "'Hello'", "'World!'"]. Everything else, including
// absolute paths with embedded spaces, is a single program with no arguments.
func splitCommand(command string) []string {
	if strings.Contains(command, " ") && !strings.HasPrefix(command, "/") {
		return strings.Fields(command)
	}
	return []string{command}
}

// commandRunner executes a single argv and waits for it to exit.
type commandRunner interface {
	Run(ctx context.Context, argv []string) error
}

// execRunner spawns commands with the caller's environment and inherits
// stdout/stderr. A non-zero exit status is not an error.
type execRunner struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func newExecRunner(logger *slog.Logger) *execRunner {
	return &execRunner{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: logger,
	}
}

func (r *execRunner) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return fmt.Errorf("empty command: %w", ErrCommandNotFound)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.logger.Debug("command exited with non-zero status", "command", argv[0], "status", exitErr.ExitCode())
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", argv[0], ErrCommandNotFound)
	}
	return err
}

// runCommands executes every command in spec sequentially. A failing command
// is logged and never stops the ones after it.
func runCommands(ctx context.Context, runner commandRunner, spec CommandSpec, logger *slog.Logger) {
	for i, command := range spec.All() {
		if ctx.Err() != nil {
			return
		}

		extra := i > 0 || spec.Primary == ""
		if extra {
			logger.Info("running extra command", "command", command)
		} else {
			logger.Info("running", "command", command)
		}

		err := runner.Run(ctx, splitCommand(command))
		switch {
		case err == nil:
		case ctx.Err() != nil:
			// Shutting down; the process was killed with the context.
			return
		case errors.Is(err, ErrCommandNotFound):
			logger.Error("command not found", "command", command, "extra", extra,
				"hint", "make sure the application is installed and in your PATH")
		default:
			logger.Error("error running command", "command", command, "extra", extra, "error", err)
		}
	}
}
