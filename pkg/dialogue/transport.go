// Package dialogue drives multi-turn interactive sessions with external
// programs. A Script is an explicit finite-state machine over expected
// prompts; a Transport abstracts the process I/O behind a single blocking
// read-with-timeout primitive.
package dialogue

// Transport is one interactive session with an external process.
type Transport interface {
	// Expect blocks until the process output matches one of the given
	// regular expressions, returning the index of the matched pattern.
	// It fails when the wait times out or the process exits first.
	Expect(patterns ...string) (int, error)

	// SendLine writes one line of input to the process.
	SendLine(line string) error

	// Close terminates the session, killing the process if it is still
	// running. Safe to call more than once.
	Close() error
}

// SpawnFunc creates a Transport for the given command. The production
// implementation is Spawn; tests substitute a scripted fake.
type SpawnFunc func(name string, args ...string) (Transport, error)
