// Package enginetest provides a compliance test suite for session.Agent
// implementations: a fixed protocol-level contract (spec.md §4.3, §8)
// that must hold regardless of which compile/test commands back a
// given agent configuration.
//
// Callers provide a factory that builds a fresh Agent wired to a given
// reader/writer pair, the same way the teacher's enginetest/clitest
// took a factory returning a fresh cli.Backend per subtest.
//
// Example usage:
//
//	func TestMyConfig(t *testing.T) {
//	    enginetest.RunSessionTests(t, func(r io.Reader, w io.Writer) *session.Agent {
//	        return session.New(myConfig(), r, w, zerolog.Nop())
//	    })
//	}
package enginetest
