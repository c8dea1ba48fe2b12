package workflow

import (
	"fmt"

	"github.com/desertthunder/mixtape/internal/shared"
)

// Status is a session's position in the generation pipeline.
type Status string

const (
	StatusPending         Status = "pending"
	StatusStarted         Status = "started"
	StatusAnalyzingMood   Status = "analyzing_mood"
	StatusGatheringSeeds  Status = "gathering_seeds"
	StatusGenerating      Status = "generating_recommendations"
	StatusEvaluating      Status = "evaluating_quality"
	StatusOptimizing      Status = "optimizing_recommendations"
	StatusOrdering        Status = "ordering_playlist"
	StatusAwaitingInput   Status = "awaiting_user_input"
	StatusProcessingEdits Status = "processing_edits"
	StatusCreating        Status = "creating_playlist"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// statusRanks orders the pipeline for monotonicity checks. Terminal states
// sit past every working state so they are always reachable.
var statusRanks = map[Status]int{
	StatusPending:         0,
	StatusStarted:         1,
	StatusAnalyzingMood:   2,
	StatusGatheringSeeds:  3,
	StatusGenerating:      4,
	StatusEvaluating:      5,
	StatusOptimizing:      6,
	StatusOrdering:        7,
	StatusAwaitingInput:   8,
	StatusProcessingEdits: 9,
	StatusCreating:        10,
	StatusCompleted:       11,
	StatusFailed:          11,
	StatusCancelled:       11,
}

var statusLabels = map[Status]string{
	StatusPending:         "Queued",
	StatusStarted:         "Starting up",
	StatusAnalyzingMood:   "Analyzing mood",
	StatusGatheringSeeds:  "Gathering seeds",
	StatusGenerating:      "Generating recommendations",
	StatusEvaluating:      "Evaluating quality",
	StatusOptimizing:      "Optimizing track list",
	StatusOrdering:        "Ordering playlist",
	StatusAwaitingInput:   "Waiting for your edits",
	StatusProcessingEdits: "Applying edits",
	StatusCreating:        "Creating playlist",
	StatusCompleted:       "Completed",
	StatusFailed:          "Failed",
	StatusCancelled:       "Cancelled",
}

// ParseStatus validates a wire status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := statusRanks[s]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, raw)
	}
	return s, nil
}

// Rank returns the status's pipeline position, or -1 for unknown values.
func (s Status) Rank() int {
	rank, ok := statusRanks[s]
	if !ok {
		return -1
	}
	return rank
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Label returns a display string for the status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CanTransition reports whether an inbound event may move the session from
// s to next. Transitions are monotonic along the pipeline rank, with one
// sanctioned oscillation: an edit round-trip returning from processing_edits
// to awaiting_user_input. Terminal states accept nothing; failure and
// cancellation are reachable from any working state. Statuses the client
// does not recognize are accepted, since the server is authoritative.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next.Terminal() {
		return true
	}
	if s == StatusProcessingEdits && next == StatusAwaitingInput {
		return true
	}
	if s.Rank() < 0 || next.Rank() < 0 {
		return true
	}
	return next.Rank() >= s.Rank()
}
