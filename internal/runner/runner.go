package runner

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/hperssn/repclock/internal/domain"
	"github.com/hperssn/repclock/internal/storage"
)

var ErrSessionFinished = errors.New("session already finished")

// Recorder receives the record of every finished session.
type Recorder interface {
	SaveSession(record *storage.SessionRecord) error
}

type Options struct {
	TickInterval time.Duration
	NewTicker    func(time.Duration) TickSource
	Engine       domain.EngineOptions
	Recorder     Recorder
	// Retention is how long finished sessions stay visible in a SessionManager.
	Retention time.Duration
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.NewTicker == nil {
		o.NewTicker = NewTicker
	}
	if o.Retention <= 0 {
		o.Retention = time.Hour
	}
	return o
}

// Session is a point-in-time view of a running or finished session.
type Session struct {
	ID         string               `json:"id"`
	UserID     string               `json:"userId"`
	PlanID     string               `json:"planId"`
	PlanName   string               `json:"planName"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt *time.Time           `json:"finishedAt,omitempty"`
	Progress   domain.ProgressEvent `json:"progress"`
	Clock      string               `json:"clock"`
}

// SessionEvent is an engine event stamped for delivery to subscribers.
type SessionEvent struct {
	SessionID string    `json:"sessionId"`
	At        time.Time `json:"at"`
	domain.Event
}

type command struct {
	apply func(*domain.Engine)
	reply chan struct{}
}

// Runner hosts one engine on its own goroutine. Ticks and control commands
// are applied there one at a time.
type Runner struct {
	mu sync.Mutex

	id        string
	userID    string
	plan      domain.SessionPlan
	startedAt time.Time
	endedAt   time.Time

	engine   *domain.Engine
	ticker   TickSource
	recorder Recorder

	snapshot    domain.ProgressEvent
	subscribers []chan SessionEvent
	commands    chan command
	done        chan struct{}
	finished    bool
}

func NewRunner(id, userID string, plan domain.SessionPlan, options Options) (*Runner, error) {
	options = options.withDefaults()

	r := &Runner{
		id:        id,
		userID:    userID,
		plan:      plan.Clone(),
		startedAt: time.Now(),
		recorder:  options.Recorder,
		commands:  make(chan command),
		done:      make(chan struct{}),
	}
	r.engine = domain.NewEngine(r.handle, options.Engine)

	if err := r.engine.Start(plan); err != nil {
		return nil, err
	}

	r.ticker = options.NewTicker(options.TickInterval)
	go r.run()

	return r, nil
}

// Subscription is an observer registered with Watch. Session is the state at
// the moment of subscribing; Events carries everything after it.
type Subscription struct {
	Session Session
	Events  <-chan SessionEvent

	cancel func()
}

// Close unregisters the observer. It is safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
}

// Watch registers an observer and snapshots the session under the same
// lock, so no event falls between the two. The channel is closed when the
// session ends; slow observers miss events rather than stall the clock.
func (r *Runner) Watch(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan SessionEvent, buffer)

	r.mu.Lock()
	defer r.mu.Unlock()

	sub := &Subscription{Session: r.sessionLocked(), Events: ch}
	if r.finished {
		close(ch)
		sub.cancel = func() {}
		return sub
	}
	r.subscribers = append(r.subscribers, ch)

	var once sync.Once
	sub.cancel = func() {
		once.Do(func() { r.unsubscribe(ch) })
	}
	return sub
}

func (r *Runner) unsubscribe(ch chan SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	for i, c := range r.subscribers {
		if c == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (r *Runner) Pause() error {
	return r.do(func(e *domain.Engine) { e.Pause() })
}

func (r *Runner) Resume() error {
	return r.do(func(e *domain.Engine) { e.Resume() })
}

func (r *Runner) SkipRest() error {
	return r.do(func(e *domain.Engine) { e.SkipRest() })
}

func (r *Runner) Advance() error {
	return r.do(func(e *domain.Engine) { e.AdvanceExercise() })
}

// Stop aborts the session. It returns once the stop has been applied.
func (r *Runner) Stop() error {
	return r.do(func(e *domain.Engine) { e.Stop() })
}

// Done is closed after the session has finished and subscribers are closed.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionLocked()
}

func (r *Runner) sessionLocked() Session {
	s := Session{
		ID:        r.id,
		UserID:    r.userID,
		PlanID:    r.plan.ID,
		PlanName:  r.plan.Name,
		StartedAt: r.startedAt,
		Progress:  r.snapshot,
		Clock:     domain.FormatClock(r.snapshot.RemainingSeconds),
	}
	if !r.endedAt.IsZero() {
		endedAt := r.endedAt
		s.FinishedAt = &endedAt
	}
	return s
}

func (r *Runner) endedBefore(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished && r.endedAt.Before(cutoff)
}

func (r *Runner) do(apply func(*domain.Engine)) error {
	reply := make(chan struct{})
	select {
	case r.commands <- command{apply: apply, reply: reply}:
	case <-r.done:
		return ErrSessionFinished
	}
	<-reply
	return nil
}

func (r *Runner) run() {
	defer r.ticker.Stop()
	defer r.close()

	for {
		select {
		case <-r.ticker.C():
			r.engine.Tick()
		case cmd := <-r.commands:
			cmd.apply(r.engine)
			close(cmd.reply)
		}

		if r.engine.Phase().Terminal() {
			return
		}
	}
}

// handle runs on the engine's goroutine for every emitted event.
func (r *Runner) handle(event domain.Event) {
	now := time.Now()

	r.mu.Lock()
	switch event.Type {
	case domain.EventProgress:
		r.snapshot = *event.Progress
	case domain.EventCompleted, domain.EventStopped:
		r.endedAt = now
	}
	r.broadcastLocked(SessionEvent{SessionID: r.id, At: now, Event: event})
	r.mu.Unlock()

	switch event.Type {
	case domain.EventCompleted:
		log.Printf("session %s completed in %s with %d points", r.id, domain.FormatClock(event.Completed.TotalElapsedSeconds), event.Completed.TotalPoints)
		r.record(storage.StatusCompleted, event.Completed.TotalElapsedSeconds, event.Completed.TotalPoints)
	case domain.EventStopped:
		log.Printf("session %s stopped after %s", r.id, domain.FormatClock(event.Stopped.TotalElapsedSeconds))
		r.record(storage.StatusStopped, event.Stopped.TotalElapsedSeconds, 0)
	}
}

func (r *Runner) record(status storage.Status, elapsed, points int) {
	if r.recorder == nil {
		return
	}

	r.mu.Lock()
	record := storage.NewSessionRecord(storage.SessionSummary{
		ID:         r.id,
		UserID:     r.userID,
		Plan:       r.plan,
		Status:     status,
		Fraction:   r.snapshot.OverallFraction,
		ElapsedSec: elapsed,
		Points:     points,
		StartedAt:  r.startedAt,
		FinishedAt: r.endedAt,
	})
	r.mu.Unlock()

	if err := r.recorder.SaveSession(record); err != nil {
		log.Printf("failed to record session %s: %v", r.id, err)
	}
}

func (r *Runner) broadcastLocked(event SessionEvent) {
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (r *Runner) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finished = true
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
	close(r.done)
}
