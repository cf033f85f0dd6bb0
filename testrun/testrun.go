// Package testrun implements the Test Executor (spec §4.6) — the
// hardest subsystem in the agent. It spawns the testee, drives its
// stdin/stdout concurrently via one worker goroutine, polls kernel
// memory counters, and adjudicates between the four overlapping
// terminal conditions described in spec §1: normal exit, timeout,
// output-limit overflow, and out-of-memory kill.
//
// The worker/driver split and its channel-based handoff are grounded
// on the teacher's engine/cli/process.go readLoop: a dedicated
// goroutine owns the child's pipes and publishes typed messages on a
// channel, while the driver (analogous to Process.Stop's
// kill-then-join sequencing) reaps the child and reconciles its exit
// status against whatever the channel already decided. Unlike the
// teacher's single Message stream, this channel carries the
// three-variant workerMsg union spec §4.6/§9 requires, because
// distinguishing an output-limit overflow from a plain runtime error
// needs more than one bit of information per message.
package testrun

import (
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

// msgChannelBuffer is generous enough that the worker essentially
// never blocks sending Data chunks while the driver is still in its
// main loop. On early exit (deadline passed) the driver keeps draining
// until the channel closes, so no buffer size is load-bearing for
// correctness — only for how much work the worker can get ahead of
// the driver before it would block.
const msgChannelBuffer = 64

// Run executes one test step: spawn the testee, feed it input, collect
// output up to outputLimitBytes, and classify the outcome per spec
// §4.6's tie-break table. A non-nil error means a host-fatal failure
// (spec §7) — failure to spawn the testee. Every other outcome,
// including a crashed or killed child, is reported via the returned
// Response.
func Run(cfg *config.Test, input []byte, timeLimit time.Duration, outputLimitBytes uint64, logger zerolog.Logger) (protocol.Response, error) {
	cmd := exec.Command(cfg.Cmd, cfg.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("testrun: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("testrun: stdout pipe: %w", err)
	}
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("testrun: open devnull: %w", err)
	}
	defer devnull.Close()
	cmd.Stderr = devnull

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("testrun: spawn %s: %w", cfg.Cmd, err)
	}

	statusPath := procstat.StatusPath(cmd.Process.Pid)
	msgCh := make(chan workerMsg, msgChannelBuffer)
	go runWorker(stdin, stdout, statusPath, input, outputLimitBytes, msgCh)

	resp := driveLoop(msgCh, start, timeLimit)
	return adjudicate(resp, cmd, msgCh, logger), nil
}

// driveLoop is the driver's main loop (spec §4.6 "Driver loop"). It
// returns the tentative response chosen by the first terminal
// condition reached: deadline, worker EOF, worker overflow, or worker
// read error.
func driveLoop(msgCh <-chan workerMsg, start time.Time, timeLimit time.Duration) protocol.Response {
	deadline := start.Add(timeLimit)
	var output []byte

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return protocol.NewErrorResponse(protocol.ErrorTimeLimitExceeded)
		}

		timer := time.NewTimer(remaining)
		select {
		case msg, ok := <-msgCh:
			timer.Stop()
			if !ok {
				// Worker exited without a terminal message — treat as
				// a runtime failure rather than hang forever.
				return protocol.NewErrorResponse(protocol.ErrorRuntimeError)
			}
			switch msg.kind {
			case workerData:
				output = append(output, msg.data...)
			case workerFin:
				if msg.ole {
					return protocol.NewErrorResponse(protocol.ErrorOutputLimitExceeded)
				}
				elapsed := time.Since(start)
				return protocol.NewTestResponse(output, elapsed.Seconds(), msg.hwm)
			case workerErr:
				return protocol.NewErrorResponse(protocol.ErrorRuntimeError)
			}

		case <-timer.C:
			return protocol.NewErrorResponse(protocol.ErrorTimeLimitExceeded)
		}
	}
}

// adjudicate performs the post-loop reconciliation in spec §4.6:
// reap the child, join the worker, and let a non-zero exit status
// override the tentative response unless the driver itself caused the
// kill (TimeLimitExceeded or OutputLimitExceeded).
func adjudicate(resp protocol.Response, cmd *exec.Cmd, msgCh <-chan workerMsg, logger zerolog.Logger) protocol.Response {
	if cmd.Process != nil {
		if err := cmd.Process.Signal(syscall.SIGKILL); err != nil {
			logger.Debug().Err(err).Msg("testrun: signal kill (likely already exited)")
		}
	}
	// cmd.Wait closes the stdout pipe once the child is reaped, so it
	// runs only here, after the driver loop has stopped consuming output.
	waitErr := cmd.Wait()

	// Drain any Data messages left in the channel (spec §5: unread
	// Data is discarded) and wait for the worker to close it — this is
	// the "join the worker thread" step.
	for range msgCh {
	}

	ignoreStatus := isTimeoutOrOverflow(resp)
	if !ignoreStatus {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			if procstat.IsOOMKill(exitErr.ProcessState) {
				return protocol.NewErrorResponse(protocol.ErrorMemoryLimitExceeded)
			}
			return protocol.NewErrorResponse(protocol.ErrorRuntimeError)
		}
	}
	return resp
}

func isTimeoutOrOverflow(resp protocol.Response) bool {
	errResp, ok := resp.(protocol.ErrorResponse)
	if !ok {
		return false
	}
	return errResp.Kind == protocol.ErrorTimeLimitExceeded || errResp.Kind == protocol.ErrorOutputLimitExceeded
}
