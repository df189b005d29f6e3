package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hperssn/repclock/internal/runner"
)

const writeWait = 5 * time.Second

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// StreamSessionWebSocket pushes the same events as StreamSessionEvents over a
// websocket, one JSON text message per event.
func StreamSessionWebSocket(manager *runner.SessionManager, allowedOrigins []string) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sub, err := manager.Watch(id, eventBuffer)
		if err != nil || sub.Session.UserID != GetUserID(r) {
			if sub != nil {
				sub.Close()
			}
			respondError(w, "session not found", http.StatusNotFound)
			return
		}
		defer sub.Close()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade for session %s failed: %v", id, err)
			return
		}
		defer conn.Close()

		// Clients only listen; reading surfaces their close frame.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := writeMessage(conn, snapshotEvent(sub.Session)); err != nil {
			return
		}

		for {
			select {
			case event, ok := <-sub.Events:
				if !ok {
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"))
					return
				}
				if err := writeMessage(conn, event); err != nil {
					log.Printf("websocket write for session %s failed: %v", id, err)
					return
				}

			case <-gone:
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, event runner.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
