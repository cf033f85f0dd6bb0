// Package protocol defines the wire types exchanged between the judge
// host and the agent over the framed control stream (see the codec
// package for the frame format itself).
//
// Requests and responses are tagged unions: each payload carries a
// "type" field naming the variant, matching the discriminator produced
// by Rust's `#[serde(tag = "type")]` on the reference implementation
// this protocol was ported from. Go has no native sum type, so each
// variant is its own struct and a small envelope peek recovers the tag
// before decoding the full payload.
package protocol

// RequestType names a Request variant. The string values are the exact
// tag written to and read from the wire — they must match the
// reference agent byte-for-byte.
type RequestType string

const (
	RequestCompilation RequestType = "Compilation"
	RequestPreparation RequestType = "Preparation"
	RequestTest        RequestType = "Test"
	RequestFin         RequestType = "Fin"
)

// Request is implemented by every request variant. The marker method
// keeps arbitrary structs from satisfying the interface by accident.
type Request interface {
	requestType() RequestType
}

// envelope is the discriminator-only shape that is decoded first to
// recover the tag before unmarshaling the full payload into its
// concrete type. The codec package decodes an equivalent local struct;
// this type itself is not referenced.
type envelope struct {
	Type RequestType `msgpack:"type"`
}

// CompilationRequest asks the agent to compile source code under a
// wall-clock time limit. MemoryLimit is accepted for wire compatibility
// but is not enforced by the agent itself (see the Open Questions in
// DESIGN.md) — the enclosing cgroup is responsible for enforcement.
type CompilationRequest struct {
	Type        RequestType `msgpack:"type"`
	Code        []byte      `msgpack:"code"`
	TimeLimit   uint32      `msgpack:"time_limit"`
	MemoryLimit uint32      `msgpack:"memory_limit"`
}

func (CompilationRequest) requestType() RequestType { return RequestCompilation }

// PreparationRequest asks the agent to install a previously-compiled
// artifact and record the limits that will govern every subsequent
// Test in this session.
type PreparationRequest struct {
	Type        RequestType `msgpack:"type"`
	Code        []byte      `msgpack:"code"`
	TimeLimit   uint32      `msgpack:"time_limit"`
	MemoryLimit uint32      `msgpack:"memory_limit"`
	OutputLimit uint32      `msgpack:"output_limit"`
}

func (PreparationRequest) requestType() RequestType { return RequestPreparation }

// TestRequest asks the agent to run the prepared executable against a
// single input, under the limits recorded by the prior Preparation.
type TestRequest struct {
	Type  RequestType `msgpack:"type"`
	Input []byte      `msgpack:"input"`
}

func (TestRequest) requestType() RequestType { return RequestTest }

// FinRequest ends the session. It carries no payload beyond the tag.
type FinRequest struct {
	Type RequestType `msgpack:"type"`
}

func (FinRequest) requestType() RequestType { return RequestFin }
