package testrun

import (
	"io"

	"github.com/penguin-judge/agent/internal/procstat"
)

// workerKind discriminates the three message variants the worker
// publishes to the driver (spec §4.6, §9): exactly one of Fin/Err ever
// terminates the stream, optionally preceded by any number of Data
// messages.
type workerKind int

const (
	workerData workerKind = iota
	workerFin
	workerErr
)

// workerMsg is the single message type carried on the worker→driver
// channel. Only the fields relevant to kind are populated.
type workerMsg struct {
	kind workerKind
	data []byte
	hwm  uint64
	ole  bool
}

// readChunkSize matches the reference agent's 1024-byte stdout reads.
const readChunkSize = 1024

// runWorker drives the testee's stdin/stdout and publishes messages on
// out until EOF, a read error, or an output-limit overflow — then
// closes out. out is closed exactly once, by this function, which
// doubles as the "join" signal the driver waits on (spec §4.6 step 2
// of post-loop adjudication).
//
// statusPath points at /proc/<pid>/status for the spawned child;
// VmHWM is sampled immediately before and after every blocking read,
// because the kernel counter can rise during the read and disappear
// once the process exits — recording the running maximum is the only
// way to see the true peak.
func runWorker(stdin io.WriteCloser, stdout io.ReadCloser, statusPath string, input []byte, outputLimit uint64, out chan<- workerMsg) {
	defer close(out)

	lastHWM := sampleHWM(statusPath, 0)

	if _, err := stdin.Write(input); err != nil {
		_ = stdin.Close()
		return
	}
	if err := stdin.Close(); err != nil {
		return
	}

	var total uint64
	buf := make([]byte, readChunkSize)

	for {
		lastHWM = sampleHWM(statusPath, lastHWM)
		n, err := stdout.Read(buf)
		lastHWM = sampleHWM(statusPath, lastHWM)

		if n > 0 {
			total += uint64(n)
			if total >= outputLimit {
				out <- workerMsg{kind: workerFin, hwm: lastHWM, ole: true}
				return
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			out <- workerMsg{kind: workerData, data: chunk}
		}

		if err != nil {
			if err == io.EOF {
				out <- workerMsg{kind: workerFin, hwm: lastHWM}
				return
			}
			if n == 0 {
				out <- workerMsg{kind: workerErr}
				return
			}
			// n > 0 with a non-EOF error on the same call: the chunk
			// above was already published; let the next Read surface
			// the terminal condition rather than double-report it.
		}
	}
}

// sampleHWM reads the current VmHWM and folds it into the running
// maximum. A read failure (process gone, file not yet populated)
// means "no update" — it never lowers last.
func sampleHWM(statusPath string, last uint64) uint64 {
	v, err := procstat.ReadVmHWM(statusPath)
	if err != nil {
		return last
	}
	if v > last {
		return v
	}
	return last
}
