package orchestrator

// State is the orchestrator's position in the query lifecycle
type State int

const (
	// StateIdle accepts a new submission
	StateIdle State = iota
	// StateSubmitting has appended the user message and placeholder
	StateSubmitting
	// StateFetchingMarketData is waiting on the price source
	StateFetchingMarketData
	// StateBuildingPrompt is combining the quotes with the user text
	StateBuildingPrompt
	// StateAwaitingAdvice is waiting on the advice service
	StateAwaitingAdvice
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateFetchingMarketData:
		return "fetching-market-data"
	case StateBuildingPrompt:
		return "building-prompt"
	case StateAwaitingAdvice:
		return "awaiting-advice"
	default:
		return "unknown"
	}
}

// OutcomeKind says how a turn ended
type OutcomeKind int

const (
	// OutcomeAdvice replaced the placeholder with the advice text
	OutcomeAdvice OutcomeKind = iota
	// OutcomeMarketFailure replaced the placeholder with the apology
	OutcomeMarketFailure
	// OutcomeAdviceFailure dropped the placeholder
	OutcomeAdviceFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAdvice:
		return "advice"
	case OutcomeMarketFailure:
		return "market-failure"
	case OutcomeAdviceFailure:
		return "advice-failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one turn
type Outcome struct {
	TurnID string
	Kind   OutcomeKind
	// Advice holds the response text for OutcomeAdvice
	Advice string
	// Alert is the reject message raised to the user, if any
	Alert string
	// Err is the collaborator failure behind a failure outcome
	Err error
}

// Failed reports whether the turn did not produce advice
func (o Outcome) Failed() bool {
	return o.Kind != OutcomeAdvice
}
