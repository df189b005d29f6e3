package domain

// EngineOptions tunes the transition rules.
type EngineOptions struct {
	// RestBetweenSets inserts the exercise's rest period between its sets as
	// well as after the exercise.
	RestBetweenSets bool
}

type sessionState struct {
	plan SessionPlan

	index           int
	set             int
	elapsed         int // seconds in the current set or rest period
	exerciseElapsed int // work seconds from finished sets of the current exercise
	exerciseDone    bool
	total           int

	restLength int
	nextIndex  int
	nextSet    int
	resumeTo   Phase
}

func (s *sessionState) current() ExercisePlanItem {
	return s.plan.Items[s.index]
}

func (s *sessionState) last() bool {
	return s.index == len(s.plan.Items)-1
}

// Engine drives a single interval workout. It is not safe for concurrent
// use: the host serialises Tick and the control calls.
type Engine struct {
	emit    func(Event)
	options EngineOptions
	phase   Phase
	state   *sessionState
	last    ProgressEvent
}

// NewEngine creates an idle engine. emit receives every event synchronously
// and may be nil.
func NewEngine(emit func(Event), options EngineOptions) *Engine {
	return &Engine{
		emit:    emit,
		options: options,
		phase:   PhaseIdle,
		last:    ProgressEvent{Phase: PhaseIdle},
	}
}

func (e *Engine) Phase() Phase {
	return e.phase
}

// Snapshot returns the current progress, or the final progress once the
// session has ended.
func (e *Engine) Snapshot() ProgressEvent {
	if e.state == nil {
		snapshot := e.last
		snapshot.Phase = e.phase
		return snapshot
	}
	return e.progress()
}

// Start validates plan and begins a fresh session at the first set of the
// first exercise. A live session is stopped first.
func (e *Engine) Start(plan SessionPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	if e.phase.Live() {
		e.Stop()
	}

	e.state = &sessionState{
		plan: plan.Clone(),
		set:  1,
	}
	e.phase = PhaseActive
	e.emitProgress()
	return nil
}

// Tick advances the clock by one second.
func (e *Engine) Tick() {
	switch e.phase {
	case PhaseActive:
		e.tickActive()
	case PhaseResting:
		e.tickRest()
	}
}

func (e *Engine) Pause() {
	if e.phase != PhaseActive && e.phase != PhaseResting {
		return
	}
	e.state.resumeTo = e.phase
	e.phase = PhasePaused
	e.emitProgress()
}

func (e *Engine) Resume() {
	if e.phase != PhasePaused {
		return
	}
	e.phase = e.state.resumeTo
	e.emitProgress()
}

// SkipRest ends the current rest period and starts the pending step.
func (e *Engine) SkipRest() {
	if e.phase != PhaseResting {
		return
	}
	e.moveTo(e.state.nextIndex, e.state.nextSet)
	e.emitProgress()
}

// AdvanceExercise ends the current exercise immediately, skipping any sets
// left, and applies the usual rest-or-continue rule. Rep-only exercises
// only finish this way.
func (e *Engine) AdvanceExercise() {
	if e.phase != PhaseActive {
		return
	}
	e.state.exerciseElapsed += e.state.elapsed
	e.finishExercise()
}

// Stop aborts the session from any phase that is not terminal, idle
// included. Like completion, it emits a final progress event and then
// StoppedEvent. No completion event is emitted.
func (e *Engine) Stop() {
	if e.phase.Terminal() {
		return
	}
	total := 0
	if e.state != nil {
		total = e.state.total
		e.last = e.progress()
	}
	e.phase = PhaseStopped
	e.last.Phase = PhaseStopped
	e.state = nil

	final := e.last
	e.send(Event{Type: EventProgress, Progress: &final})
	e.send(Event{Type: EventStopped, Stopped: &StoppedEvent{TotalElapsedSeconds: total}})
}

func (e *Engine) tickActive() {
	s := e.state
	s.elapsed++
	s.total++

	item := s.current()
	if !item.RepOnly() && s.elapsed >= item.DurationSeconds {
		e.finishSet()
		return
	}
	e.emitProgress()
}

func (e *Engine) tickRest() {
	s := e.state
	s.elapsed++
	s.total++

	if s.elapsed >= s.restLength {
		e.moveTo(s.nextIndex, s.nextSet)
	}
	e.emitProgress()
}

func (e *Engine) finishSet() {
	s := e.state
	item := s.current()
	s.exerciseElapsed += s.elapsed

	if s.set < item.Sets {
		if e.options.RestBetweenSets && item.RestSeconds > 0 {
			e.beginRest(item.RestSeconds, s.index, s.set+1)
		} else {
			s.set++
			s.elapsed = 0
		}
		e.emitProgress()
		return
	}
	e.finishExercise()
}

func (e *Engine) finishExercise() {
	s := e.state
	item := s.current()
	s.exerciseDone = true

	if s.last() {
		e.complete()
		return
	}

	if item.RestSeconds > 0 {
		e.beginRest(item.RestSeconds, s.index+1, 1)
	} else {
		e.moveTo(s.index+1, 1)
	}
	e.emitProgress()
}

func (e *Engine) beginRest(length, nextIndex, nextSet int) {
	s := e.state
	s.restLength = length
	s.nextIndex = nextIndex
	s.nextSet = nextSet
	s.elapsed = 0
	e.phase = PhaseResting
}

func (e *Engine) moveTo(index, set int) {
	s := e.state
	if index != s.index {
		s.exerciseElapsed = 0
		s.exerciseDone = false
	}
	s.index = index
	s.set = set
	s.elapsed = 0
	s.restLength = 0
	e.phase = PhaseActive
}

func (e *Engine) complete() {
	s := e.state
	e.phase = PhaseCompleted
	e.emitProgress()
	e.state = nil

	e.send(Event{Type: EventCompleted, Completed: &CompletedEvent{
		TotalElapsedSeconds: s.total,
		TotalPoints:         s.plan.TotalPoints(),
	}})
}

func (e *Engine) progress() ProgressEvent {
	s := e.state
	item := s.current()

	effective := e.phase
	if effective == PhasePaused {
		effective = s.resumeTo
	}

	event := ProgressEvent{
		Phase:               e.phase,
		ExerciseIndex:       s.index,
		ExerciseName:        item.Name,
		SetNumber:           s.set,
		ElapsedSeconds:      s.elapsed,
		TotalElapsedSeconds: s.total,
	}

	switch effective {
	case PhaseResting:
		event.RemainingSeconds = s.restLength - s.elapsed
	case PhaseActive:
		if !item.RepOnly() {
			event.RemainingSeconds = item.DurationSeconds - s.elapsed
		}
	}

	var perExercise float64
	switch {
	case s.exerciseDone:
		perExercise = 1
	case item.WorkSeconds() > 0:
		worked := s.exerciseElapsed
		if effective == PhaseActive {
			worked += s.elapsed
		}
		perExercise = float64(worked) / float64(item.WorkSeconds())
	}
	event.OverallFraction = OverallFraction(s.index, perExercise, len(s.plan.Items))

	return event
}

func (e *Engine) emitProgress() {
	event := e.progress()
	e.last = event
	e.send(Event{Type: EventProgress, Progress: &event})
}

func (e *Engine) send(event Event) {
	if e.emit != nil {
		e.emit(event)
	}
}
