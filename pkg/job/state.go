package job

import "fmt"

// State is the lifecycle state of a job.
//
// Transitions:
//
//	NONE -> INITIALIZED -> RUNNING -> (WAITING <-> RUNNING)* -> FINISHED
//
// FINISHED is terminal.
type State int

const (
	StateNone State = iota
	StateInitialized
	StateRunning
	StateWaiting
	StateFinished
)

var stateNames = [...]string{
	StateNone:        "NONE",
	StateInitialized: "INITIALIZED",
	StateRunning:     "RUNNING",
	StateWaiting:     "WAITING",
	StateFinished:    "FINISHED",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown job state %q", text)
}
