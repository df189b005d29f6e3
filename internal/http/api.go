package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/repclock/internal/domain"
	"github.com/hperssn/repclock/internal/runner"
	"github.com/hperssn/repclock/internal/storage"
)

// API holds the handlers' dependencies.
type API struct {
	manager *runner.SessionManager
	catalog *storage.Catalog
	history storage.Repository

	randMu sync.Mutex
	random *rand.Rand
}

func NewAPI(manager *runner.SessionManager, catalog *storage.Catalog, history storage.Repository) *API {
	return &API{
		manager: manager,
		catalog: catalog,
		history: history,
		random:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *API) ListPlans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, a.catalog.List(), http.StatusOK)
}

func (a *API) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := a.catalog.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, "plan not found", http.StatusNotFound)
		return
	}

	respondJSON(w, struct {
		domain.SessionPlan
		TotalSeconds int `json:"totalSeconds"`
		TotalPoints  int `json:"totalPoints"`
	}{plan, plan.TotalTicks(), plan.TotalPoints()}, http.StatusOK)
}

type startSessionRequest struct {
	PlanID string              `json:"planId"`
	Plan   *domain.SessionPlan `json:"plan"`
	Warmup bool                `json:"warmup"`
}

func (a *API) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var plan domain.SessionPlan
	switch {
	case req.Plan != nil:
		plan = req.Plan.Clone()
		if plan.ID == "" {
			plan.ID = "custom"
		}
	case req.PlanID != "":
		var ok bool
		plan, ok = a.catalog.Get(req.PlanID)
		if !ok {
			respondError(w, "plan not found", http.StatusNotFound)
			return
		}
	default:
		respondError(w, "planId or plan is required", http.StatusBadRequest)
		return
	}

	// Validate before the warm-up is sized from the plan.
	if err := plan.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Warmup {
		a.randMu.Lock()
		plan = domain.WithWarmup(plan, plan.TotalTicks(), a.random)
		a.randMu.Unlock()
	}

	session, err := a.manager.StartSession(GetUserID(r), plan)
	if err != nil {
		var planErr *domain.InvalidPlanError
		if errors.As(err, &planErr) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, runner.ErrManagerClosed) {
			respondError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, session, http.StatusCreated)
}

func (a *API) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := a.manager.Sessions(GetUserID(r))
	if sessions == nil {
		sessions = []runner.Session{}
	}
	respondJSON(w, sessions, http.StatusOK)
}

func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := a.ownSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, session, http.StatusOK)
}

func (a *API) Pause(w http.ResponseWriter, r *http.Request) {
	a.control(w, r, a.manager.Pause)
}

func (a *API) Resume(w http.ResponseWriter, r *http.Request) {
	a.control(w, r, a.manager.Resume)
}

func (a *API) SkipRest(w http.ResponseWriter, r *http.Request) {
	a.control(w, r, a.manager.SkipRest)
}

func (a *API) Advance(w http.ResponseWriter, r *http.Request) {
	a.control(w, r, a.manager.Advance)
}

func (a *API) StopSession(w http.ResponseWriter, r *http.Request) {
	a.control(w, r, a.manager.StopSession)
}

func (a *API) control(w http.ResponseWriter, r *http.Request, op func(string) error) {
	session, ok := a.ownSession(w, r)
	if !ok {
		return
	}

	if err := op(session.ID); err != nil {
		switch {
		case errors.Is(err, runner.ErrSessionNotFound):
			respondError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, runner.ErrSessionFinished):
			respondError(w, err.Error(), http.StatusConflict)
		default:
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownSession looks up the session in the URL. Sessions of other users are
// reported as missing.
func (a *API) ownSession(w http.ResponseWriter, r *http.Request) (runner.Session, bool) {
	session, ok := a.manager.GetSession(chi.URLParam(r, "id"))
	if !ok || session.UserID != GetUserID(r) {
		respondError(w, "session not found", http.StatusNotFound)
		return runner.Session{}, false
	}
	return session, true
}

func (a *API) History(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	var (
		records []storage.SessionRecord
		err     error
	)
	if days := r.URL.Query().Get("days"); days != "" {
		n, convErr := strconv.Atoi(days)
		if convErr != nil || n <= 0 {
			respondError(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		records, err = a.history.GetRecentSessions(userID, time.Now().AddDate(0, 0, -n))
	} else {
		records, err = a.history.GetSessionsByUser(userID)
	}
	if err != nil {
		log.Printf("failed to load history for %s: %v", userID, err)
		respondError(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []storage.SessionRecord{}
	}
	respondJSON(w, records, http.StatusOK)
}

func (a *API) HistoryStats(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	stats, err := a.history.GetSessionStats(userID)
	if err != nil {
		log.Printf("failed to load stats for %s: %v", userID, err)
		respondError(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
