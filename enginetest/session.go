package enginetest

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/penguin-judge/agent/protocol"
	"github.com/penguin-judge/agent/session"
)

// AgentFactory builds a fresh Agent wired to r/w. The underlying
// Configuration must have a Test section backed by a command that
// always exists (e.g. "true", "cat") so that a Preparation always
// succeeds — the suite exercises protocol-level behavior, not any
// particular compiler or testee.
type AgentFactory func(r io.Reader, w io.Writer) *session.Agent

// RunSessionTests runs the Session Driver's protocol-level compliance
// suite (spec.md §4.3, §8) against factory. Each subtest calls factory
// once, mirroring the teacher's per-subtest backend construction.
func RunSessionTests(t *testing.T, factory AgentFactory) {
	t.Helper()
	t.Run("InvalidRequestInStartIsFatal", func(t *testing.T) { runInvalidRequestInStart(t, factory) })
	t.Run("FinInStartIsFatal", func(t *testing.T) { runFinInStart(t, factory) })
	t.Run("CleanFinProducesNoResponse", func(t *testing.T) { runCleanFin(t, factory) })
	t.Run("ExactlyOneResponsePerTest", func(t *testing.T) { runExactlyOneResponsePerTest(t, factory) })
	t.Run("InvalidRequestInReadyIsFatal", func(t *testing.T) { runInvalidRequestInReady(t, factory) })
}

func runInvalidRequestInStart(t *testing.T, factory AgentFactory) {
	t.Helper()
	in := bytes.NewBuffer(frame(t, protocol.TestRequest{Type: protocol.RequestTest, Input: []byte("x")}))
	var out bytes.Buffer
	a := factory(in, &out)
	if err := a.Run(context.Background()); err == nil {
		t.Error("want fatal error for a Test request before Preparation, got nil")
	}
}

func runFinInStart(t *testing.T, factory AgentFactory) {
	t.Helper()
	in := bytes.NewBuffer(frame(t, protocol.FinRequest{Type: protocol.RequestFin}))
	var out bytes.Buffer
	a := factory(in, &out)
	if err := a.Run(context.Background()); err == nil {
		t.Error("want fatal error for a Fin request before Preparation, got nil")
	}
}

func runCleanFin(t *testing.T, factory AgentFactory) {
	t.Helper()
	var in bytes.Buffer
	in.Write(frame(t, protocol.PreparationRequest{
		Type: protocol.RequestPreparation, TimeLimit: 5, MemoryLimit: 64, OutputLimit: 1,
	}))
	in.Write(frame(t, protocol.FinRequest{Type: protocol.RequestFin}))
	var out bytes.Buffer

	a := factory(&in, &out)
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("want no bytes written after a Preparation+Fin session, got %d bytes", out.Len())
	}
}

func runExactlyOneResponsePerTest(t *testing.T, factory AgentFactory) {
	t.Helper()
	var in bytes.Buffer
	in.Write(frame(t, protocol.PreparationRequest{
		Type: protocol.RequestPreparation, TimeLimit: 5, MemoryLimit: 64, OutputLimit: 1,
	}))
	in.Write(frame(t, protocol.TestRequest{Type: protocol.RequestTest, Input: nil}))
	in.Write(frame(t, protocol.FinRequest{Type: protocol.RequestFin}))
	var out bytes.Buffer

	a := factory(&in, &out)
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	frames := countFrames(t, out.Bytes())
	if frames != 1 {
		t.Errorf("want exactly one response frame for one Test request, got %d", frames)
	}
}

func runInvalidRequestInReady(t *testing.T, factory AgentFactory) {
	t.Helper()
	var in bytes.Buffer
	in.Write(frame(t, protocol.PreparationRequest{
		Type: protocol.RequestPreparation, TimeLimit: 5, MemoryLimit: 64, OutputLimit: 1,
	}))
	in.Write(frame(t, protocol.CompilationRequest{Type: protocol.RequestCompilation, TimeLimit: 1, MemoryLimit: 1}))
	var out bytes.Buffer

	a := factory(&in, &out)
	if err := a.Run(context.Background()); err == nil {
		t.Error("want fatal error for a Compilation request once in READY state, got nil")
	}
}

func frame(t *testing.T, v protocol.Request) []byte {
	t.Helper()
	payload, err := msgpack.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	var buf bytes.Buffer
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(payload)))
	buf.Write(sizeBuf[:])
	buf.Write(payload)
	return buf.Bytes()
}

// countFrames walks a concatenated stream of length-prefixed frames
// and returns how many complete frames it contains.
func countFrames(t *testing.T, data []byte) int {
	t.Helper()
	n := 0
	for len(data) > 0 {
		if len(data) < 4 {
			t.Fatalf("trailing %d bytes, not enough for a frame length", len(data))
		}
		size := binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < size {
			t.Fatalf("frame %d declares %d bytes but only %d remain", n, size, len(data))
		}
		data = data[size:]
		n++
	}
	return n
}
