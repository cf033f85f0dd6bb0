// Package prepare implements the Prepare Step (spec §4.5): installing
// a previously-compiled artifact and recording the limits that govern
// every subsequent Test in the session.
package prepare

import (
	"fmt"
	"os"

	"github.com/penguin-judge/agent/config"
)

// executableMode matches the reference agent's chmod 0755 on the
// installed artifact.
const executableMode = 0o755

// Limits holds the per-session limits recorded by Prepare and consumed
// by every later Test (spec §3 "Session state").
type Limits struct {
	TimeLimitSeconds uint32
	MemoryLimitMiB   uint32
	// OutputLimitBytes is the configured MiB limit already left-shifted
	// by 20, per spec §4.5.
	OutputLimitBytes uint64
}

// Run writes code to cfg.Path with executable permissions and returns
// the Limits to install on the session. Any I/O failure is host-fatal
// (spec §4.5, §7) — unlike Compile/Test, there is no protocol-level
// error for a failed Prepare; the session simply cannot proceed.
func Run(cfg *config.Test, code []byte, timeLimit, memoryLimit, outputLimitMiB uint32) (Limits, error) {
	if err := os.WriteFile(cfg.Path, code, executableMode); err != nil {
		return Limits{}, fmt.Errorf("prepare: write artifact: %w", err)
	}
	// os.WriteFile applies the mode only when creating the file; force
	// it explicitly in case cfg.Path already existed from a prior run.
	if err := os.Chmod(cfg.Path, executableMode); err != nil {
		return Limits{}, fmt.Errorf("prepare: chmod artifact: %w", err)
	}

	return Limits{
		TimeLimitSeconds: timeLimit,
		MemoryLimitMiB:   memoryLimit,
		OutputLimitBytes: uint64(outputLimitMiB) << 20,
	}, nil
}
