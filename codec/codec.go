// Package codec implements the framed wire format shared by the judge
// host and the agent: a 4-byte little-endian payload length followed by
// a MessagePack-encoded tagged object (spec §4.1, §6).
//
// Reads are blocking and return exactly one frame. Writes flush
// immediately so the host observes response boundaries promptly —
// mirroring the teacher's acp.Conn, which encodes under a mutex and
// never buffers a response past its own send call.
package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/penguin-judge/agent/protocol"
)

// maxFrameSize bounds the length prefix to guard against a corrupt or
// hostile length field turning into a multi-gigabyte allocation. The
// control stream is from a trusted host (spec §1 Non-goals), so this
// is a sanity ceiling, not a security boundary.
const maxFrameSize = 1 << 30 // 1 GiB

// Codec reads Requests and writes Responses over a framed byte stream.
type Codec struct {
	r *bufio.Reader
	w *bufio.Writer
}

// New wraps r and w in a Codec. r and w are typically the agent's own
// stdin/stdout, connected by the supervisor to the host.
func New(r io.Reader, w io.Writer) *Codec {
	return &Codec{r: bufio.NewReader(r), w: bufio.NewWriter(w)}
}

// Recv blocks until one full frame has been read, decodes its payload,
// and returns the concrete Request variant. Decoding failures are
// returned as errors — per spec §4.1 these are InternalError-class
// failures on the caller's ingress path, not this package's concern.
func (c *Codec) Recv() (protocol.Request, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(c.r, sizeBuf[:]); err != nil {
		return nil, fmt.Errorf("codec: read frame length: %w", err)
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("codec: frame length %d exceeds %d byte ceiling", size, maxFrameSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, fmt.Errorf("codec: read frame payload: %w", err)
	}

	return decodeRequest(payload)
}

// Send encodes v, writes its length-prefixed frame, and flushes.
// Encoding failures are fatal per spec §4.1 — they indicate programmer
// error (an unencodable Response) and are propagated rather than
// swallowed.
func (c *Codec) Send(v protocol.Response) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("codec: marshal response: %w", err)
	}

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(payload)))
	if _, err := c.w.Write(sizeBuf[:]); err != nil {
		return fmt.Errorf("codec: write frame length: %w", err)
	}
	if _, err := c.w.Write(payload); err != nil {
		return fmt.Errorf("codec: write frame payload: %w", err)
	}
	return c.w.Flush()
}

// decodeRequest peeks the "type" discriminator and unmarshals payload
// into the matching concrete Request variant.
func decodeRequest(payload []byte) (protocol.Request, error) {
	var env struct {
		Type protocol.RequestType `msgpack:"type"`
	}
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("codec: decode envelope: %w", err)
	}

	switch env.Type {
	case protocol.RequestCompilation:
		var v protocol.CompilationRequest
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("codec: decode Compilation: %w", err)
		}
		return v, nil
	case protocol.RequestPreparation:
		var v protocol.PreparationRequest
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("codec: decode Preparation: %w", err)
		}
		return v, nil
	case protocol.RequestTest:
		var v protocol.TestRequest
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("codec: decode Test: %w", err)
		}
		return v, nil
	case protocol.RequestFin:
		return protocol.FinRequest{Type: protocol.RequestFin}, nil
	default:
		return nil, fmt.Errorf("codec: unknown request type %q", env.Type)
	}
}
