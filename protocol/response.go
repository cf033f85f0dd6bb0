package protocol

// ResponseType names a Response variant, mirroring RequestType.
type ResponseType string

const (
	ResponseCompilation ResponseType = "Compilation"
	ResponseTest        ResponseType = "Test"
	ResponseError       ResponseType = "Error"
)

// Response is implemented by every response variant.
type Response interface {
	responseType() ResponseType
}

// ErrorKind enumerates the protocol-level error taxonomy (spec §7).
// These are the exact lexical forms written to the wire.
type ErrorKind string

const (
	// ErrorCompilationError means the compiler rejected the submission.
	ErrorCompilationError ErrorKind = "CompilationError"
	// ErrorRuntimeError means the testee crashed or its output pipe broke.
	ErrorRuntimeError ErrorKind = "RuntimeError"
	// ErrorMemoryLimitExceeded means the child was killed by the external
	// cgroup's OOM killer (detected via the SIGKILL/no-exit-code predicate).
	ErrorMemoryLimitExceeded ErrorKind = "MemoryLimitExceeded"
	// ErrorTimeLimitExceeded means the wall-clock deadline was missed.
	ErrorTimeLimitExceeded ErrorKind = "TimeLimitExceeded"
	// ErrorOutputLimitExceeded means the testee wrote more bytes than
	// output_limit allows.
	ErrorOutputLimitExceeded ErrorKind = "OutputLimitExceeded"
	// ErrorInternalError is reserved for codec or system failures the
	// agent chooses to surface to the host rather than abort on.
	ErrorInternalError ErrorKind = "InternalError"
)

// CompilationResponse reports a successful compile.
type CompilationResponse struct {
	Type   ResponseType `msgpack:"type"`
	Binary []byte       `msgpack:"binary"`
	Time   float64      `msgpack:"time"`
	Memory uint64       `msgpack:"memory"`
}

func (CompilationResponse) responseType() ResponseType { return ResponseCompilation }

// NewCompilationResponse builds a Compilation response. memory is
// always 0 — the compile step is not monitored for memory use
// (enforcement is external; see the Open Questions in DESIGN.md).
func NewCompilationResponse(binary []byte, seconds float64) CompilationResponse {
	return CompilationResponse{Type: ResponseCompilation, Binary: binary, Time: seconds, Memory: 0}
}

// TestResponse reports a completed test run.
type TestResponse struct {
	Type        ResponseType `msgpack:"type"`
	Output      []byte       `msgpack:"output"`
	Time        float64      `msgpack:"time"`
	MemoryBytes uint64       `msgpack:"memory_bytes"`
}

func (TestResponse) responseType() ResponseType { return ResponseTest }

// NewTestResponse builds a Test response.
func NewTestResponse(output []byte, seconds float64, memoryBytes uint64) TestResponse {
	return TestResponse{Type: ResponseTest, Output: output, Time: seconds, MemoryBytes: memoryBytes}
}

// ErrorResponse reports a classified failure (spec §7, §8).
type ErrorResponse struct {
	Type ResponseType `msgpack:"type"`
	Kind ErrorKind    `msgpack:"kind"`
}

func (ErrorResponse) responseType() ResponseType { return ResponseError }

// NewErrorResponse builds an Error response of the given kind.
func NewErrorResponse(kind ErrorKind) ErrorResponse {
	return ErrorResponse{Type: ResponseError, Kind: kind}
}
