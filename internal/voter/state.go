package voter

// State is a page of the registration wizard, or one of its terminal states.
type State int

const (
	StateLanding State = iota
	StateDisclaimer
	StatePersonalInfo
	StateAddressInfo
	StateFound
	StateNotFound
	StateConfirmation
	StateDone
	StateAborted
)

var stateNames = map[State]string{
	StateLanding:      "landing",
	StateDisclaimer:   "disclaimer",
	StatePersonalInfo: "personal_info",
	StateAddressInfo:  "address_info",
	StateFound:        "found",
	StateNotFound:     "not_found",
	StateConfirmation: "confirmation",
	StateDone:         "done",
	StateAborted:      "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the machine stops in s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// transitions lists the legal next states of every non-terminal state.
var transitions = map[State][]State{
	StateLanding:      {StateDisclaimer},
	StateDisclaimer:   {StatePersonalInfo, StateAborted},
	StatePersonalInfo: {StateAddressInfo},
	StateAddressInfo:  {StateFound, StateNotFound, StateAborted},
	StateFound:        {StateConfirmation},
	StateNotFound:     {StateDone},
	StateConfirmation: {StateDone},
}

// CanTransition reports whether the wizard may move from one state to the next.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
