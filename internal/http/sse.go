package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/repclock/internal/domain"
	"github.com/hperssn/repclock/internal/runner"
)

const eventBuffer = 16

// StreamSessionEvents sends the current state of a session followed by every
// event it emits, as Server-Sent Events. The stream ends with the session.
func StreamSessionEvents(manager *runner.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		sub, err := manager.Watch(id, eventBuffer)
		if err != nil || sub.Session.UserID != GetUserID(r) {
			if sub != nil {
				sub.Close()
			}
			respondError(w, "session not found", http.StatusNotFound)
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		writeEvent(w, snapshotEvent(sub.Session))
		flusher.Flush()

		for {
			select {
			case event, ok := <-sub.Events:
				if !ok {
					return
				}
				writeEvent(w, event)
				flusher.Flush()

			case <-r.Context().Done():
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event runner.SessionEvent) {
	data, _ := json.Marshal(event)
	fmt.Fprintf(w, "event: %s\n", event.Type)
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}

// snapshotEvent presents the state at subscription time as a progress event.
func snapshotEvent(session runner.Session) runner.SessionEvent {
	progress := session.Progress
	return runner.SessionEvent{
		SessionID: session.ID,
		At:        time.Now(),
		Event:     domain.Event{Type: domain.EventProgress, Progress: &progress},
	}
}
