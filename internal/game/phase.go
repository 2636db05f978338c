package game

import "fmt"

// Side is one of the two players
type Side int

const (
	Human Side = iota
	Opponent
)

// String returns the string representation of the side
func (s Side) String() string {
	switch s {
	case Human:
		return "Human"
	case Opponent:
		return "Opponent"
	default:
		return "Unknown"
	}
}

// Other returns the side that plays next.
func (s Side) Other() Side {
	if s == Human {
		return Opponent
	}
	return Human
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side from its name.
func (s *Side) UnmarshalText(text []byte) error {
	for _, v := range []Side{Human, Opponent} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown side %q", text)
}

// Phase is what the current turn is waiting on
type Phase int

const (
	Idle     Phase = iota // turn not started yet
	Aiming                // human agent is lining up
	Thinking              // opponent sequence is running
	Moving                // pieces are in motion
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Aiming:
		return "aiming"
	case Thinking:
		return "thinking"
	case Moving:
		return "moving"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase from its name.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, v := range []Phase{Idle, Aiming, Thinking, Moving} {
		if v.String() == string(text) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
