//go:build !windows

package procstat

import (
	"os"
	"syscall"
)

// IsOOMKill reports whether state indicates the process was terminated
// by SIGKILL with no exit code — the signature of an external cgroup's
// OOM killer (spec §4.7).
func IsOOMKill(state *os.ProcessState) bool {
	if state == nil {
		return false
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		return false
	}
	return ws.Signaled() && ws.Signal() == syscall.SIGKILL
}
