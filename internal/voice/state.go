package voice

type State int

const (
	StateIdle State = iota
	StateAwaitingQuestion
	StateSpeaking
	StateListening
	StateGrading
	// StateAwaitingContinue holds the turn after an incorrect answer or a
	// recognition failure until Continue is called.
	StateAwaitingContinue
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingQuestion:
		return "awaiting_question"
	case StateSpeaking:
		return "speaking"
	case StateListening:
		return "listening"
	case StateGrading:
		return "grading"
	case StateAwaitingContinue:
		return "awaiting_continue"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
