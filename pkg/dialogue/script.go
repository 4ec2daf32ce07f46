package dialogue

import (
	"github.com/rs/zerolog"

	"github.com/MoeTools/nessus/pkg/errors"
)

// Transition is one edge of the dialogue state machine: when Expect
// matches, Respond is sent (unless Silent) and the machine moves to Next.
// An empty Next terminates the dialogue successfully.
type Transition struct {
	Expect  string // regular expression matched against process output
	Respond string // line sent after the match; may be empty
	Silent  bool   // match without sending anything
	Note    string // informational log line emitted on the match
	Next    string
}

// State is a named set of currently-expected prompts.
type State struct {
	Name        string
	Transitions []Transition
}

// Script is a validated dialogue state machine.
type Script struct {
	initial string
	states  map[string]State
}

// NewScript builds a Script, checking that the initial state exists, every
// transition target exists, and no state is empty.
func NewScript(initial string, states []State) (*Script, error) {
	m := make(map[string]State, len(states))
	for _, st := range states {
		if len(st.Transitions) == 0 {
			return nil, errors.Newf(errors.ErrInternal, "dialogue state %q has no transitions", st.Name)
		}
		if _, dup := m[st.Name]; dup {
			return nil, errors.Newf(errors.ErrInternal, "duplicate dialogue state %q", st.Name)
		}
		m[st.Name] = st
	}
	if _, ok := m[initial]; !ok {
		return nil, errors.Newf(errors.ErrInternal, "unknown initial dialogue state %q", initial)
	}
	for _, st := range m {
		for _, tr := range st.Transitions {
			if tr.Next == "" {
				continue
			}
			if _, ok := m[tr.Next]; !ok {
				return nil, errors.Newf(errors.ErrInternal,
					"dialogue state %q references unknown state %q", st.Name, tr.Next)
			}
		}
	}
	return &Script{initial: initial, states: m}, nil
}

// Run drives the state machine over the transport until a terminal
// transition fires. A response is only ever sent after one of the current
// state's prompts has been observed, so the session cannot desynchronize
// from the external process. Any unexpected output or timeout aborts the
// dialogue; it is never retried.
func (s *Script) Run(t Transport, logger zerolog.Logger) error {
	state := s.states[s.initial]
	for {
		patterns := make([]string, len(state.Transitions))
		for i, tr := range state.Transitions {
			patterns[i] = tr.Expect
		}

		idx, err := t.Expect(patterns...)
		if err != nil {
			return errors.Wrapf(err, errors.GetErrorCode(err),
				"dialogue failed in state %q", state.Name)
		}
		tr := state.Transitions[idx]
		logger.Debug().Str("state", state.Name).Str("prompt", tr.Expect).Msg("Prompt observed")
		if tr.Note != "" {
			logger.Info().Msg(tr.Note)
		}

		if !tr.Silent {
			if err := t.SendLine(tr.Respond); err != nil {
				return errors.Wrapf(err, errors.ErrDialogueMismatch,
					"failed to respond in state %q", state.Name)
			}
		}

		if tr.Next == "" {
			return nil
		}
		state = s.states[tr.Next]
	}
}
