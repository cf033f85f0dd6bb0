// Package compile implements the Compile Executor (spec §4.4): it
// writes a submission to disk, runs the configured compiler under a
// wall-clock deadline, and reads back the resulting artifact.
//
// The spawn/timeout/kill shape is grounded on the teacher's subprocess
// lifecycle in engine/cli/process.go — a deadline-based wait raced
// against a done channel, followed by SIGTERM/SIGKILL on timeout — but
// trimmed to the compile step's much simpler single-shot needs (there
// is no stdin pipe, no streaming output, and no resumption).
package compile

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/penguin-judge/agent/config"
	"github.com/penguin-judge/agent/internal/procstat"
	"github.com/penguin-judge/agent/protocol"
)

// Run executes one compile step and returns the Response to send to
// the host. A non-nil error means a host-fatal failure (spec §7) —
// I/O failure writing the source, or failure to spawn the compiler.
// All other outcomes (timeout, compiler rejection, OOM) are reported
// via the returned Response, never via error.
func Run(ctx context.Context, cfg *config.Compile, code []byte, timeLimit time.Duration, logger zerolog.Logger) (protocol.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if err := os.WriteFile(cfg.Path, code, 0o644); err != nil {
		return nil, fmt.Errorf("compile: write source: %w", err)
	}

	cmd := exec.Command(cfg.Cmd, cfg.Args...)
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("compile: open devnull: %w", err)
	}
	defer devnull.Close()
	cmd.Stdout = devnull
	cmd.Stderr = devnull

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("compile: spawn %s: %w", cfg.Cmd, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeLimit)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		elapsed := time.Since(start)
		return classifyExit(cfg, waitErr, elapsed, logger), nil

	case <-timer.C:
		logger.Debug().Str("cmd", cfg.Cmd).Dur("limit", timeLimit).Msg("compile: time limit exceeded, killing child")
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGKILL)
		}
		<-done // reap — best-effort, outcome already decided
		return protocol.NewErrorResponse(protocol.ErrorTimeLimitExceeded), nil
	}
}

// classifyExit turns a finished compiler run into a Response (spec
// §4.4 steps 5–6).
func classifyExit(cfg *config.Compile, waitErr error, elapsed time.Duration, logger zerolog.Logger) protocol.Response {
	if waitErr == nil {
		bin, err := os.ReadFile(cfg.Output)
		if err == nil {
			return protocol.NewCompilationResponse(bin, elapsed.Seconds())
		}
		logger.Debug().Err(err).Str("output", cfg.Output).Msg("compile: artifact missing despite success exit")
		return protocol.NewErrorResponse(protocol.ErrorCompilationError)
	}

	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		return protocol.NewErrorResponse(protocol.ErrorCompilationError)
	}
	if procstat.IsOOMKill(exitErr.ProcessState) {
		return protocol.NewErrorResponse(protocol.ErrorMemoryLimitExceeded)
	}
	return protocol.NewErrorResponse(protocol.ErrorCompilationError)
}
