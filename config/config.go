// Package config holds the agent's immutable configuration record and
// the one-shot templating pass that resolves it at construction time
// (spec §3, §4.2).
//
// Loading the JSON config file from disk is an external concern (spec
// §6) handled by cmd/penguin-judge-agent; this package only shapes and
// resolves an already-parsed Configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/penguin-judge/agent/internal/tempfile"
)

// sentinel values substituted into Args during Resolve.
const (
	sentinelPath   = "<path>"
	sentinelOutput = "<output>"
)

// Compile holds the compile-step configuration (spec §3).
type Compile struct {
	// Path is the file the submitted source is written to. Empty until
	// Resolve fills it in as "<prefix><ext>".
	Path string `json:"path"`
	// Ext is the source file extension used to synthesize Path.
	Ext string `json:"ext"`
	// Output is the artifact path the compiler is expected to produce.
	// Empty until Resolve fills it in as "<prefix>".
	Output string `json:"output"`
	// Cmd is the compiler executable.
	Cmd string `json:"cmd"`
	// Args is the compiler command-line template. Elements equal to
	// "<path>" or "<output>" are replaced by the resolved Path/Output
	// during Resolve.
	Args []string `json:"args"`
}

// Test holds the test-step configuration (spec §3).
type Test struct {
	// Path is the file the prepared executable artifact is written to.
	Path string `json:"path"`
	// Ext is the artifact extension used to synthesize Path.
	Ext string `json:"ext"`
	// Cmd is the command used to run the testee. Empty means "default
	// to Path" — the prepared artifact is run directly.
	Cmd string `json:"cmd"`
	// Args is the testee command-line template, same sentinel rules as
	// Compile.Args.
	Args []string `json:"args"`
}

// Configuration is the agent's immutable (post-Resolve) configuration.
// Either field may be nil: a compile-only agent has no Test, and a
// prepare-and-test agent has no Compile.
type Configuration struct {
	Compile *Compile `json:"compile"`
	Test    *Test    `json:"test"`
}

// Resolve fills in empty Path/Output fields and substitutes sentinels
// in Args. It is a pure function over the record, run exactly once at
// agent construction (idempotence is not required — see spec §4.2).
// One temp prefix is generated per call and shared by every path it
// synthesizes.
//
// now lets callers (tests) control the wall-clock reading used to
// derive the temp prefix; production callers pass a closure around
// time.Now().
func (c *Configuration) Resolve(now func() (secs int64, nanos int64)) error {
	prefix := filepath.Join(os.TempDir(), tempfile.Prefix(now))
	if c.Compile != nil {
		if err := resolveCompile(c.Compile, prefix); err != nil {
			return fmt.Errorf("config: resolve compile: %w", err)
		}
	}
	if c.Test != nil {
		if err := resolveTest(c.Test, prefix); err != nil {
			return fmt.Errorf("config: resolve test: %w", err)
		}
	}
	return nil
}

func resolveCompile(c *Compile, prefix string) error {
	if c.Path == "" {
		c.Path = prefix + c.Ext
	}
	if c.Output == "" {
		c.Output = prefix
	}
	if c.Cmd == "" {
		return fmt.Errorf("compile.cmd must not be empty")
	}
	substituteSentinels(c.Args, c.Path, c.Output)
	return nil
}

func resolveTest(t *Test, prefix string) error {
	if t.Path == "" {
		t.Path = prefix + t.Ext
	}
	if t.Cmd == "" {
		t.Cmd = t.Path
	}
	substituteSentinels(t.Args, t.Path, "")
	return nil
}

// substituteSentinels replaces every "<path>"/"<output>" element of
// args in place with the resolved path/output values. When output is
// empty (the test section has no output path), "<output>" elements are
// left unchanged.
func substituteSentinels(args []string, path, output string) {
	for i, a := range args {
		switch a {
		case sentinelPath:
			args[i] = path
		case sentinelOutput:
			if output != "" {
				args[i] = output
			}
		}
	}
}

// Now returns a (secs, nanos) pair from the real wall clock, suitable
// for passing to Resolve in production.
func Now() (int64, int64) {
	t := time.Now()
	return t.Unix(), int64(t.Nanosecond())
}

// Paths returns every filesystem path materialized by this
// Configuration (spec §4.8: compile.path, compile.output, test.path),
// for best-effort cleanup on session teardown.
func (c Configuration) Paths() []string {
	var paths []string
	if c.Compile != nil {
		paths = append(paths, c.Compile.Path, c.Compile.Output)
	}
	if c.Test != nil {
		paths = append(paths, c.Test.Path)
	}
	return paths
}
