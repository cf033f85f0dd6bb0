package codec

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/penguin-judge/agent/protocol"
)

func TestRoundTrip_Requests(t *testing.T) {
	cases := []protocol.Request{
		protocol.CompilationRequest{Type: protocol.RequestCompilation, Code: []byte("int main(){}"), TimeLimit: 10, MemoryLimit: 64},
		protocol.PreparationRequest{Type: protocol.RequestPreparation, Code: []byte("\x7fELF"), TimeLimit: 5, MemoryLimit: 32, OutputLimit: 1},
		protocol.TestRequest{Type: protocol.RequestTest, Input: []byte("1\n")},
		protocol.FinRequest{Type: protocol.RequestFin},
	}

	for _, want := range cases {
		var buf bytes.Buffer
		if err := writeRequestFrame(&buf, want); err != nil {
			t.Fatalf("write frame: %v", err)
		}

		dec := New(&buf, nil)
		got, err := dec.Recv()
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch: want %+v, got %+v", want, got)
		}
	}
}

func TestRoundTrip_Responses(t *testing.T) {
	cases := []protocol.Response{
		protocol.NewCompilationResponse([]byte("binary-bytes"), 0.42),
		protocol.NewTestResponse([]byte("Hello World\n"), 0.01, 4096),
		protocol.NewErrorResponse(protocol.ErrorTimeLimitExceeded),
	}

	for _, want := range cases {
		var buf bytes.Buffer
		enc := New(nil, &buf)
		if err := enc.Send(want); err != nil {
			t.Fatalf("send: %v", err)
		}

		payload := readFrame(t, &buf)
		got, err := decodeResponseForTest(payload, want)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch: want %+v, got %+v", want, got)
		}
	}
}

func TestRecv_UnknownType(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRawFrame(&buf, map[string]any{"type": "Bogus"}); err != nil {
		t.Fatalf("write raw frame: %v", err)
	}
	dec := New(&buf, nil)
	if _, err := dec.Recv(); err == nil {
		t.Fatal("want error for unknown request type")
	}
}

func TestRecv_TruncatedLength(t *testing.T) {
	dec := New(bytes.NewReader([]byte{1, 2}), nil)
	if _, err := dec.Recv(); err == nil {
		t.Fatal("want error reading a truncated length prefix")
	}
}

func TestRecv_TruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRawFrame(&buf, map[string]any{"type": "Fin"}); err != nil {
		t.Fatalf("write raw frame: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-1]
	dec := New(bytes.NewReader(truncated), nil)
	if _, err := dec.Recv(); err == nil {
		t.Fatal("want error reading a truncated payload")
	}
}
