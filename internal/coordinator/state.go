package coordinator

import "fmt"

// State is the Coordinator's position in the selection/fetch cycle.
type State int

const (
	Idle State = iota
	AwaitingSelection
	Fetching
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSelection:
		return "awaiting_selection"
	case Fetching:
		return "fetching"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{Idle, AwaitingSelection, Fetching, Done, Failed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Source tells where a point selection came from.
type Source int

const (
	SourceClick Source = iota
	SourceDrag
	SourceGeolocation
)

func (s Source) String() string {
	switch s {
	case SourceClick:
		return "click"
	case SourceDrag:
		return "drag"
	case SourceGeolocation:
		return "geolocation"
	default:
		return "unknown"
	}
}

// ParseSource maps the API's source names; anything unknown is a click.
func ParseSource(s string) Source {
	switch s {
	case "drag":
		return SourceDrag
	case "geolocation":
		return SourceGeolocation
	default:
		return SourceClick
	}
}
