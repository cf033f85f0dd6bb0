// Package procstat reads kernel memory counters from
// /proc/<pid>/status and classifies exit statuses as OOM kills
// (spec §4.7).
//
// Neither operation is available from any library in the retrieved
// corpus: gopsutil's process package exposes a MemoryInfo() call
// backed by /proc/<pid>/status, but does not surface VmHWM
// specifically, and none of the pack's process-supervision code
// (hashicorp/nomad's executor, the teacher's engine/cli/process.go)
// reads it either — this is a narrow, single-field scanner better
// written directly than pulled in as a dependency.
package procstat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const vmHWMPrefix = "VmHWM:"

// ErrNotFound is returned when the status file has no VmHWM line, or
// cannot be opened — spec §4.7 treats both as "no update", since the
// child may have already exited and /proc/<pid> may be gone.
var ErrNotFound = fmt.Errorf("procstat: VmHWM not found")

// ReadVmHWM reads the VmHWM ("high water mark" peak resident set size)
// field from /proc/<pid>/status and returns it in bytes.
func ReadVmHWM(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, ErrNotFound
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, vmHWMPrefix) {
			continue
		}
		rest := strings.TrimSpace(line[len(vmHWMPrefix):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return 0, ErrNotFound
		}
		kb, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, ErrNotFound
		}
		return kb * 1024, nil
	}
	return 0, ErrNotFound
}

// StatusPath returns the /proc/<pid>/status path for pid.
func StatusPath(pid int) string {
	return fmt.Sprintf("/proc/%d/status", pid)
}
