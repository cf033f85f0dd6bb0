// Package tempfile generates the unique temp-path prefix each agent
// instance uses to name the files it materializes on disk (spec §3, §9).
//
// Uniqueness is derived from three independent sources — wall-clock
// time at nanosecond precision, the process id, and a hash of the
// constructing goroutine's identity (approximated here via a random
// UUID, since Go goroutines have no exposed stable identity the way a
// Rust std::thread::ThreadId does). Reproducing all three, rather than
// relying on any single one, is deliberate: pid alone collides across
// container restarts that reuse pid 1, and wall-clock alone collides
// under clock coarsening on some kernels.
package tempfile

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Prefix returns a new temp-path prefix of the form
// penguin_judge_tempfile_<epoch-secs><epoch-nanos>_<pid>_<identity-hash>.
//
// now is injected so callers (and tests) control the wall-clock reading;
// production callers pass config.Now, a wrapper around time.Now().
func Prefix(now func() (secs int64, nanos int64)) string {
	secs, nanos := now()
	identity := uuid.New()
	return fmt.Sprintf("penguin_judge_tempfile_%d%d_%d_%x", secs, nanos, os.Getpid(), identity[:8])
}
