package analysis

import (
	"time"
)

// Outcome is how a request ended.
type Outcome int

const (
	// OutcomePublished means the results are now in the buffer.
	OutcomePublished Outcome = iota

	// OutcomeStale means the buffer changed, or the document was closed,
	// before the results could be published. They were dropped.
	OutcomeStale

	// OutcomeEngineFailure means the engine failed. Its context was discarded.
	OutcomeEngineFailure

	// OutcomePoolExhausted means no analysis context was free. The request
	// was skipped.
	OutcomePoolExhausted
)

// String returns the name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePublished:
		return "published"
	case OutcomeStale:
		return "stale"
	case OutcomeEngineFailure:
		return "engine-failure"
	case OutcomePoolExhausted:
		return "pool-exhausted"
	default:
		return "unknown"
	}
}

// Report describes one finished request.
type Report struct {
	Path    string
	Version uint64
	Mode    Mode
	Outcome Outcome

	// Err is the engine error for OutcomeEngineFailure.
	Err error

	// Problems is the number of problems published.
	Problems int

	// Reparsed is true when an existing context was updated incrementally.
	Reparsed bool

	Elapsed time.Duration
}

// Stats captures aggregate information about a scheduler's lifetime.
type Stats struct {
	// Enqueued counts accepted requests, coalesced ones included.
	Enqueued int

	// Coalesced counts requests that replaced a pending one.
	Coalesced int

	Published int
	Stale     int
	Failed    int
	Exhausted int

	// ProblemsPublished is the total number of problems published.
	ProblemsPublished int
}

// Finished returns the number of requests that ran to an outcome.
func (s Stats) Finished() int {
	return s.Published + s.Stale + s.Failed + s.Exhausted
}

func (s *Stats) accumulate(r Report) {
	switch r.Outcome {
	case OutcomePublished:
		s.Published++
		s.ProblemsPublished += r.Problems
	case OutcomeStale:
		s.Stale++
	case OutcomeEngineFailure:
		s.Failed++
	case OutcomePoolExhausted:
		s.Exhausted++
	}
}
