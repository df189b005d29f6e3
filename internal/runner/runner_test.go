package runner_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hperssn/repclock/internal/domain"
	"github.com/hperssn/repclock/internal/runner"
	"github.com/hperssn/repclock/internal/storage"
)

type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {}

func (m *manualTicker) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case m.ch <- time.Now():
		case <-time.After(time.Second):
			t.Fatalf("tick %d was not consumed", i+1)
		}
	}
}

func manualOptions(ticker *manualTicker, recorder runner.Recorder) runner.Options {
	return runner.Options{
		NewTicker: func(time.Duration) runner.TickSource { return ticker },
		Recorder:  recorder,
	}
}

func shortPlan() domain.SessionPlan {
	return domain.SessionPlan{
		ID:   "short",
		Name: "Short",
		Items: []domain.ExercisePlanItem{
			{Name: "A", DurationSeconds: 2, Sets: 1, RestSeconds: 1, Points: 10},
			{Name: "B", DurationSeconds: 1, Sets: 1, Points: 5},
		},
	}
}

func drain(t *testing.T, events <-chan runner.SessionEvent) []runner.SessionEvent {
	t.Helper()
	var got []runner.SessionEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, event)
		case <-timeout:
			t.Fatalf("events channel was not closed")
		}
	}
}

func waitDone(t *testing.T, r *runner.Runner) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not finish")
	}
}

func TestRunner_CompletesAndRecords(t *testing.T) {
	ticker := newManualTicker()
	repo := storage.NewMemoryRepository()

	r, err := runner.NewRunner("session-1", "athlete", shortPlan(), manualOptions(ticker, repo))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := r.Watch(32).Events

	ticker.tick(t, shortPlan().TotalTicks())

	got := drain(t, events)
	if len(got) == 0 {
		t.Fatalf("expected events")
	}
	last := got[len(got)-1]
	if last.Type != domain.EventCompleted {
		t.Fatalf("last event = %s want %s", last.Type, domain.EventCompleted)
	}
	if last.SessionID != "session-1" {
		t.Fatalf("session id = %q want session-1", last.SessionID)
	}
	if last.Completed.TotalPoints != 15 {
		t.Fatalf("points = %d want 15", last.Completed.TotalPoints)
	}

	session := r.Session()
	if session.FinishedAt == nil {
		t.Fatalf("expected finish time")
	}
	if session.Progress.Phase != domain.PhaseCompleted {
		t.Fatalf("phase = %s want completed", session.Progress.Phase)
	}

	records, err := repo.GetSessionsByUser("athlete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d want 1", len(records))
	}
	if records[0].Status != storage.StatusCompleted || records[0].ExercisesDone != 2 || records[0].TotalPoints != 15 {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestRunner_Stop(t *testing.T) {
	ticker := newManualTicker()
	repo := storage.NewMemoryRepository()

	r, err := runner.NewRunner("session-stop", "athlete", shortPlan(), manualOptions(ticker, repo))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := r.Watch(32).Events

	ticker.tick(t, 1)
	if err := r.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := drain(t, events)
	stopped := 0
	for _, event := range got {
		switch event.Type {
		case domain.EventStopped:
			stopped++
		case domain.EventCompleted:
			t.Fatalf("stopped session must not complete")
		}
	}
	if stopped != 1 {
		t.Fatalf("stopped events = %d want 1", stopped)
	}

	waitDone(t, r)
	if err := r.Pause(); !errors.Is(err, runner.ErrSessionFinished) {
		t.Fatalf("Pause() after stop = %v want %v", err, runner.ErrSessionFinished)
	}
	if r.Session().Progress.Phase != domain.PhaseStopped {
		t.Fatalf("phase = %s want stopped", r.Session().Progress.Phase)
	}

	records, _ := repo.GetSessionsByUser("athlete")
	if len(records) != 1 || records[0].Status != storage.StatusStopped {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].TotalElapsedSec != 1 || records[0].ExercisesDone != 0 {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestRunner_PauseIgnoresTicks(t *testing.T) {
	ticker := newManualTicker()

	r, err := runner.NewRunner("session-pause", "athlete", shortPlan(), manualOptions(ticker, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Stop()

	ticker.tick(t, 1)
	if err := r.Pause(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ticker.tick(t, 5)
	if err := r.Resume(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := r.Session().Progress
	if got.Phase != domain.PhaseActive || got.ElapsedSeconds != 1 {
		t.Fatalf("got %+v, want active with 1s elapsed", got)
	}
}

func TestRunner_SkipRestAndAdvance(t *testing.T) {
	ticker := newManualTicker()

	r, err := runner.NewRunner("session-skip", "athlete", shortPlan(), manualOptions(ticker, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ticker.tick(t, 2)
	if err := r.SkipRest(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Session().Progress; got.ExerciseIndex != 1 || got.Phase != domain.PhaseActive {
		t.Fatalf("got %+v, want exercise 1 active", got)
	}

	if err := r.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitDone(t, r)
	if got := r.Session().Progress.Phase; got != domain.PhaseCompleted {
		t.Fatalf("phase = %s want completed", got)
	}
}

func TestRunner_WatchAfterFinish(t *testing.T) {
	ticker := newManualTicker()

	r, err := runner.NewRunner("session-late", "athlete", shortPlan(), manualOptions(ticker, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitDone(t, r)

	if _, ok := <-r.Watch(1).Events; ok {
		t.Fatalf("expected closed channel")
	}
}

func TestRunner_InvalidPlan(t *testing.T) {
	_, err := runner.NewRunner("bad", "athlete", domain.SessionPlan{}, runner.Options{})

	var planErr *domain.InvalidPlanError
	if !errors.As(err, &planErr) {
		t.Fatalf("NewRunner() = %v want *domain.InvalidPlanError", err)
	}
}

func TestRunner_RealTicker(t *testing.T) {
	s := domain.SessionPlan{
		Items: []domain.ExercisePlanItem{
			{Name: "A", DurationSeconds: 2, Sets: 1},
			{Name: "B", DurationSeconds: 1, Sets: 1},
		},
	}

	r, err := runner.NewRunner("session-real", "athlete", s, runner.Options{TickInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitDone(t, r)
	if got := r.Session().Progress; got.Phase != domain.PhaseCompleted || got.TotalElapsedSeconds != 3 {
		t.Fatalf("got %+v, want completed after 3 ticks", got)
	}
}

func TestRunner_WatchSnapshotAndClose(t *testing.T) {
	ticker := newManualTicker()

	r, err := runner.NewRunner("session-w", "athlete", shortPlan(), manualOptions(ticker, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ticker.tick(t, 1)
	// A no-op command returns only after the tick has been applied.
	if err := r.Resume(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := r.Watch(8)
	if sub.Session.Progress.TotalElapsedSeconds != 1 {
		t.Fatalf("snapshot elapsed = %d want 1", sub.Session.Progress.TotalElapsedSeconds)
	}

	sub.Close()
	sub.Close()
	if _, ok := <-sub.Events; ok {
		t.Fatalf("expected closed channel after Close")
	}

	other := r.Watch(8)
	if err := r.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := drain(t, other.Events)
	if len(got) != 2 || got[0].Progress == nil || got[0].Progress.Phase != domain.PhaseStopped || got[1].Type != domain.EventStopped {
		t.Fatalf("events = %+v, want final progress then stopped", got)
	}
	other.Close()

	finished := r.Watch(1)
	if finished.Session.Progress.Phase != domain.PhaseStopped {
		t.Fatalf("phase = %s want stopped", finished.Session.Progress.Phase)
	}
	if _, ok := <-finished.Events; ok {
		t.Fatalf("expected closed channel for finished session")
	}
}
