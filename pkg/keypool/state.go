package keypool

// State is the position of the scanner inside a candidate record tag.
type State uint8

const (
	// StateNone means no tag byte has been matched.
	StateNone State = iota

	// StateC means a 'c' was seen and a 'k' would continue "ckey".
	StateC

	// StateK means a 'k' was seen, either after 'c' or on its own.
	StateK

	// StateE means "ke" was seen and a 'y' completes the tag.
	StateE
)

// String returns a human readable identifier for the state.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateC:
		return "c"
	case StateK:
		return "k"
	case StateE:
		return "e"
	default:
		return "unknown"
	}
}

// Action tells the scanner what to do after a transition.
type Action uint8

const (
	// ActionNone means keep scanning.
	ActionNone Action = iota

	// ActionReadLength means a "key" or "ckey" tag was completed and the
	// next byte is the length of the public key that follows it.
	ActionReadLength
)

const (
	tagC = 'c'
	tagK = 'k'
	tagE = 'e'
	tagY = 'y'
	tagM = 'm'
)

// Next is the transition function of the tag automaton. prev is the byte
// before b and is only meaningful when hasPrev is set.
//
// A bare 'k' right after an 'm' never starts a tag, so "mkey" records are
// skipped. The check is not applied to a 'c' starting "ckey".
func Next(s State, prev byte, hasPrev bool, b byte) (State, Action) {
	switch s {
	case StateNone:
		switch {
		case b == tagC:
			return StateC, ActionNone
		case b == tagK && !(hasPrev && prev == tagM):
			return StateK, ActionNone
		}

	case StateC:
		if b == tagK {
			return StateK, ActionNone
		}

	case StateK:
		if b == tagE {
			return StateE, ActionNone
		}

	case StateE:
		if b == tagY {
			return StateNone, ActionReadLength
		}
	}

	return StateNone, ActionNone
}
