package testrun

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/penguin-judge/agent/config"
	"github.com/penguin-judge/agent/protocol"
)

func shCfg(script string) *config.Test {
	return &config.Test{Cmd: "sh", Args: []string{"-c", script}}
}

func TestRun_EchoesStdout(t *testing.T) {
	cfg := shCfg(`read -r n; echo "$((n + 1))"`)
	got, err := Run(cfg, []byte("1\n"), 5*time.Second, 1<<20, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp, ok := got.(protocol.TestResponse)
	if !ok {
		t.Fatalf("want TestResponse, got %T: %+v", got, got)
	}
	if string(resp.Output) != "2\n" {
		t.Fatalf("want output 2\\n, got %q", resp.Output)
	}
	if resp.Time <= 0 {
		t.Fatalf("want positive elapsed time, got %v", resp.Time)
	}
}

func TestRun_Timeout(t *testing.T) {
	cfg := shCfg("sleep 5")
	start := time.Now()
	got, err := Run(cfg, nil, 200*time.Millisecond, 1<<20, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout resolution took too long: %v", elapsed)
	}
	resp, ok := got.(protocol.ErrorResponse)
	if !ok || resp.Kind != protocol.ErrorTimeLimitExceeded {
		t.Fatalf("want TimeLimitExceeded, got %+v", got)
	}
}

func TestRun_RuntimeError(t *testing.T) {
	cfg := shCfg("exit 1")
	got, err := Run(cfg, nil, 5*time.Second, 1<<20, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp, ok := got.(protocol.ErrorResponse)
	if !ok || resp.Kind != protocol.ErrorRuntimeError {
		t.Fatalf("want RuntimeError, got %+v", got)
	}
}

func TestRun_OutputLimitExceeded(t *testing.T) {
	cfg := &config.Test{Cmd: "yes"}
	got, err := Run(cfg, nil, 5*time.Second, 4096, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp, ok := got.(protocol.ErrorResponse)
	if !ok || resp.Kind != protocol.ErrorOutputLimitExceeded {
		t.Fatalf("want OutputLimitExceeded, got %+v", got)
	}
}

func TestRun_MemoryLimitExceeded(t *testing.T) {
	cfg := shCfg("kill -9 $$")
	got, err := Run(cfg, nil, 5*time.Second, 1<<20, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp, ok := got.(protocol.ErrorResponse)
	if !ok || resp.Kind != protocol.ErrorMemoryLimitExceeded {
		t.Fatalf("want MemoryLimitExceeded, got %+v", got)
	}
}

func TestRun_EmptyInputEmptyOutput(t *testing.T) {
	cfg := shCfg("true")
	got, err := Run(cfg, []byte(""), 5*time.Second, 1<<20, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp, ok := got.(protocol.TestResponse)
	if !ok {
		t.Fatalf("want TestResponse, got %T: %+v", got, got)
	}
	if len(resp.Output) != 0 {
		t.Fatalf("want empty output, got %q", resp.Output)
	}
}
