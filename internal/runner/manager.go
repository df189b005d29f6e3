package runner

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hperssn/repclock/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrManagerClosed   = errors.New("session manager is shut down")
)

const cleanupInterval = 5 * time.Minute

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Runner
	options  Options
	quit     chan struct{}
	once     sync.Once
	closed   bool
}

func NewSessionManager(options Options) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*Runner),
		options:  options.withDefaults(),
		quit:     make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

func (m *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			m.cleanupOldSessions(now)
		case <-m.quit:
			return
		}
	}
}

func (m *SessionManager) cleanupOldSessions(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-m.options.Retention)

	removed := 0
	for id, r := range m.sessions {
		if r.endedBefore(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSession validates plan and starts ticking it for userID.
func (m *SessionManager) StartSession(userID string, plan domain.SessionPlan) (Session, error) {
	id := uuid.New().String()

	// Held across NewRunner so Shutdown cannot miss a session that is
	// being started.
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Session{}, ErrManagerClosed
	}
	r, err := NewRunner(id, userID, plan, m.options)
	if err != nil {
		m.mu.Unlock()
		return Session{}, err
	}
	m.sessions[id] = r
	m.mu.Unlock()

	log.Printf("session %s started for %s: %q, %d exercises", id, userID, plan.Name, len(plan.Items))
	return r.Session(), nil
}

func (m *SessionManager) lookup(id string) (*Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

func (m *SessionManager) GetSession(id string) (Session, bool) {
	r, err := m.lookup(id)
	if err != nil {
		return Session{}, false
	}
	return r.Session(), true
}

// Sessions lists the sessions of userID, newest first.
func (m *SessionManager) Sessions(userID string) []Session {
	m.mu.Lock()
	var sessions []Session
	for _, r := range m.sessions {
		if r.userID == userID {
			sessions = append(sessions, r.Session())
		}
	}
	m.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions
}

// Watch subscribes to a session and returns its current state.
func (m *SessionManager) Watch(id string, buffer int) (*Subscription, error) {
	r, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return r.Watch(buffer), nil
}

func (m *SessionManager) Pause(id string) error {
	return m.control(id, (*Runner).Pause)
}

func (m *SessionManager) Resume(id string) error {
	return m.control(id, (*Runner).Resume)
}

func (m *SessionManager) SkipRest(id string) error {
	return m.control(id, (*Runner).SkipRest)
}

func (m *SessionManager) Advance(id string) error {
	return m.control(id, (*Runner).Advance)
}

// StopSession aborts a session. The session stays visible until cleanup.
func (m *SessionManager) StopSession(id string) error {
	return m.control(id, (*Runner).Stop)
}

func (m *SessionManager) control(id string, op func(*Runner) error) error {
	r, err := m.lookup(id)
	if err != nil {
		return err
	}
	return op(r)
}

// Shutdown stops every live session and the cleanup loop. StartSession
// fails with ErrManagerClosed afterwards.
func (m *SessionManager) Shutdown() {
	m.once.Do(func() {
		close(m.quit)
	})

	m.mu.Lock()
	m.closed = true
	runners := make([]*Runner, 0, len(m.sessions))
	for _, r := range m.sessions {
		runners = append(runners, r)
	}
	m.mu.Unlock()

	for _, r := range runners {
		if err := r.Stop(); err != nil && !errors.Is(err, ErrSessionFinished) {
			log.Printf("failed to stop session %s: %v", r.id, err)
		}
		<-r.Done()
	}
}
