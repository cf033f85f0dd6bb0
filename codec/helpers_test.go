package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/penguin-judge/agent/protocol"
)

// writeRequestFrame writes a single length-prefixed msgpack frame for a
// Request, exercising the same wire shape Recv expects — used so tests
// can drive Codec.Recv without a live host on the other end.
func writeRequestFrame(w io.Writer, req protocol.Request) error {
	payload, err := msgpack.Marshal(req)
	if err != nil {
		return err
	}
	return writeFrame(w, payload)
}

func writeRawFrame(w io.Writer, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return writeFrame(w, payload)
}

func writeFrame(w io.Writer, payload []byte) error {
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(payload)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(t *testing.T, r *bytes.Buffer) []byte {
	t.Helper()
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		t.Fatalf("read frame length: %v", err)
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		t.Fatalf("read frame payload: %v", err)
	}
	return payload
}

// decodeResponseForTest decodes payload into the same concrete type as
// want, so the test can compare like-for-like without Codec exposing a
// Response decoder (the agent never needs to decode its own output).
func decodeResponseForTest(payload []byte, want protocol.Response) (protocol.Response, error) {
	switch want.(type) {
	case protocol.CompilationResponse:
		var v protocol.CompilationResponse
		err := msgpack.Unmarshal(payload, &v)
		return v, err
	case protocol.TestResponse:
		var v protocol.TestResponse
		err := msgpack.Unmarshal(payload, &v)
		return v, err
	case protocol.ErrorResponse:
		var v protocol.ErrorResponse
		err := msgpack.Unmarshal(payload, &v)
		return v, err
	default:
		panic("unreachable")
	}
}
