package domain

// Phase is the current mode of the session state machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseActive    Phase = "active"
	PhaseResting   Phase = "resting"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
	PhaseStopped   Phase = "stopped"
)

// Live reports whether the phase belongs to a session that can still change.
func (p Phase) Live() bool {
	return p == PhaseActive || p == PhaseResting || p == PhasePaused
}

// Terminal reports whether the session has ended.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseStopped
}

// EventType defines the kind of engine event.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventStopped   EventType = "stopped"
)

// Event is what the engine emits. Exactly one payload is set, matching Type.
type Event struct {
	Type      EventType       `json:"type"`
	Progress  *ProgressEvent  `json:"progress,omitempty"`
	Completed *CompletedEvent `json:"completed,omitempty"`
	Stopped   *StoppedEvent   `json:"stopped,omitempty"`
}

// ProgressEvent is emitted on every processed tick and every phase change.
type ProgressEvent struct {
	Phase               Phase   `json:"phase"`
	ExerciseIndex       int     `json:"exerciseIndex"`
	ExerciseName        string  `json:"exerciseName"`
	SetNumber           int     `json:"setNumber"`
	ElapsedSeconds      int     `json:"elapsedSeconds"`
	RemainingSeconds    int     `json:"remainingSeconds"`
	TotalElapsedSeconds int     `json:"totalElapsedSeconds"`
	OverallFraction     float64 `json:"overallFraction"`
}

// CompletedEvent is emitted once when the final set of the final exercise finishes.
type CompletedEvent struct {
	TotalElapsedSeconds int `json:"totalElapsedSeconds"`
	TotalPoints         int `json:"totalPoints"`
}

// StoppedEvent is emitted once when the caller aborts a live session.
type StoppedEvent struct {
	TotalElapsedSeconds int `json:"totalElapsedSeconds"`
}
