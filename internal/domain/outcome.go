package domain

// OutcomeKind discriminates the terminal result of a generation call.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeBlocked        OutcomeKind = "blocked"
	OutcomeEmpty          OutcomeKind = "empty"
	OutcomeTransportError OutcomeKind = "transport_error"
)

// Outcome is the tagged result of submitting a prompt to the generative
// capability. Exactly the fields matching Kind are populated.
type Outcome struct {
	Kind   OutcomeKind
	Text   string // success
	Reason string // blocked
	Detail string // transport error
}

func Success(text string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

func Blocked(reason string) Outcome {
	return Outcome{Kind: OutcomeBlocked, Reason: reason}
}

func Empty() Outcome {
	return Outcome{Kind: OutcomeEmpty}
}

func TransportError(detail string) Outcome {
	return Outcome{Kind: OutcomeTransportError, Detail: detail}
}
