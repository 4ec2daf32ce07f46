package runner

import (
	"context"
	"sync"
)

// Call records one invocation seen by a Recorder.
type Call struct {
	Name string
	Args []string
}

// Response scripts the outcome of one invocation.
type Response struct {
	Result Result
	Err    error
}

// Recorder is a scripted Runner for tests. Responses are consumed in
// order; once exhausted, Default is returned (zero value: success with no
// output).
type Recorder struct {
	mu        sync.Mutex
	Responses []Response
	Default   Response
	Calls     []Call
}

var _ Runner = (*Recorder)(nil)

// Run records the call and pops the next scripted response.
func (r *Recorder) Run(ctx context.Context, name string, args ...string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, Call{Name: name, Args: append([]string(nil), args...)})

	if len(r.Responses) > 0 {
		resp := r.Responses[0]
		r.Responses = r.Responses[1:]
		return resp.Result, resp.Err
	}
	return r.Default.Result, r.Default.Err
}

// CallCount returns the number of invocations recorded so far.
func (r *Recorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}
