package binding

import "fmt"

// State is the lifecycle position of a binding.
type State int32

const (
	StateDetached State = iota
	StateMounting
	StateStreaming
	StateError
)

func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateMounting:
		return "mounting"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateDetached, StateMounting, StateStreaming, StateError} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown binding state %q", text)
}
