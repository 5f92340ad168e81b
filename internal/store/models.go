package store

import "time"

type ExperimentState string

const (
	StateRunning   ExperimentState = "running"
	StatePaused    ExperimentState = "paused"
	StateCompleted ExperimentState = "completed"
)

// Event types counted per distinct visitor.
const (
	EventView    = "view"
	EventConvert = "convert"
)

// Experiment is an A/B test as configured by the tracking service.
// Variant 0 is the control.
type Experiment struct {
	ID             int64
	Name           string
	Variants       []string // Decoded from JSON
	ConversionGoal string
	State          ExperimentState
	WinnerVariant  *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DeclaredWinner returns the name of the variant the tracking service
// recorded as winner, if any.
func (e *Experiment) DeclaredWinner() (string, bool) {
	if e.WinnerVariant == nil || *e.WinnerVariant < 0 || *e.WinnerVariant >= len(e.Variants) {
		return "", false
	}
	return e.Variants[*e.WinnerVariant], true
}

type VariantStats struct {
	Variant     int
	Views       int
	Conversions int
}
