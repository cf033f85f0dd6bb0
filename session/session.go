// Package session implements the Session Driver (spec §4.3): the
// top-level single-threaded state machine deciding which request is
// valid next, and dispatching accepted requests to the Compile,
// Prepare, and Test subsystems.
//
// The state machine and its fatal/non-fatal error split are grounded
// on the teacher's Session.Run loop in session.go: a recv-dispatch-send
// cycle that treats control-stream failures as fatal but keeps the
// stream alive across classified failures of the work it dispatches.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/penguin-judge/agent/codec"
	"github.com/penguin-judge/agent/compile"
	"github.com/penguin-judge/agent/config"
	"github.com/penguin-judge/agent/prepare"
	"github.com/penguin-judge/agent/protocol"
	"github.com/penguin-judge/agent/testrun"
)

// state names the driver's position in the spec §4.3 state machine.
type state int

const (
	stateStart state = iota
	stateReady
	stateDone
)

// Agent drives one session over a single control-stream connection. It
// is single-use: once Run returns, the Agent must not be reused.
type Agent struct {
	cfg    config.Configuration
	codec  *codec.Codec
	logger zerolog.Logger

	state  state
	limits prepare.Limits
}

// New constructs an Agent over an already-Resolved Configuration and a
// raw byte stream (typically the process's own stdin/stdout).
func New(cfg config.Configuration, r io.Reader, w io.Writer, logger zerolog.Logger) *Agent {
	return &Agent{
		cfg:    cfg,
		codec:  codec.New(r, w),
		logger: logger,
		state:  stateStart,
	}
}

// Run executes the session to completion. It returns nil on a clean
// Fin or the natural end of a one-shot Compilation. Any returned error
// is host-fatal (spec §7) and should cause the process to exit
// non-zero.
//
// Cleanup (spec §4.8) always runs via defer, regardless of which path
// Run exits through — the Go equivalent of the scope guard spec §9
// calls for in languages without deterministic destruction.
func (a *Agent) Run(ctx context.Context) error {
	defer a.cleanup()

	for a.state != stateDone {
		req, err := a.codec.Recv()
		if err != nil {
			return fmt.Errorf("session: recv: %w", err)
		}

		done, err := a.dispatch(ctx, req)
		if err != nil {
			return err
		}
		if done {
			a.state = stateDone
		}
	}
	return nil
}

// dispatch handles one request against the current state. It returns
// done=true when the session should end after this request (Fin, or
// the terminal response of a one-shot Compilation).
func (a *Agent) dispatch(ctx context.Context, req protocol.Request) (done bool, err error) {
	switch a.state {
	case stateStart:
		return a.dispatchStart(ctx, req)
	case stateReady:
		return a.dispatchReady(ctx, req)
	default:
		return true, fmt.Errorf("session: dispatch called in terminal state")
	}
}

func (a *Agent) dispatchStart(ctx context.Context, req protocol.Request) (bool, error) {
	switch r := req.(type) {
	case protocol.CompilationRequest:
		if a.cfg.Compile == nil {
			return true, fmt.Errorf("session: Compilation request but agent has no compile config")
		}
		resp, err := compile.Run(ctx, a.cfg.Compile, r.Code, time.Duration(r.TimeLimit)*time.Second, a.logger)
		if err != nil {
			return true, fmt.Errorf("session: compile: %w", err)
		}
		if err := a.codec.Send(resp); err != nil {
			return true, fmt.Errorf("session: send compilation response: %w", err)
		}
		// Spec §4.3: a Compilation terminates the session; it never
		// transitions to READY.
		return true, nil

	case protocol.PreparationRequest:
		if a.cfg.Test == nil {
			return true, fmt.Errorf("session: Preparation request but agent has no test config")
		}
		limits, err := prepare.Run(a.cfg.Test, r.Code, r.TimeLimit, r.MemoryLimit, r.OutputLimit)
		if err != nil {
			return true, fmt.Errorf("session: prepare: %w", err)
		}
		a.limits = limits
		a.state = stateReady
		return false, nil

	default:
		return true, fmt.Errorf("session: invalid request in START state: %T", req)
	}
}

func (a *Agent) dispatchReady(_ context.Context, req protocol.Request) (bool, error) {
	switch r := req.(type) {
	case protocol.TestRequest:
		resp, err := testrun.Run(
			a.cfg.Test,
			r.Input,
			time.Duration(a.limits.TimeLimitSeconds)*time.Second,
			a.limits.OutputLimitBytes,
			a.logger,
		)
		if err != nil {
			return false, fmt.Errorf("session: test: %w", err)
		}
		if err := a.codec.Send(resp); err != nil {
			return true, fmt.Errorf("session: send test response: %w", err)
		}
		return false, nil

	case protocol.FinRequest:
		return true, nil

	default:
		return true, fmt.Errorf("session: invalid request in READY state: %T", req)
	}
}

// cleanup attempts to unlink every path materialized in the
// Configuration (spec §4.8). Unlink failures are ignored — a temp file
// left behind on a best-effort cleanup is not actionable by the agent.
func (a *Agent) cleanup() {
	paths := a.cfg.Paths()
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			a.logger.Debug().Err(err).Str("path", p).Msg("session: cleanup unlink failed")
		}
	}
}
