package httpapi

import (
	"context"
	"log"
	"net/http"
)

type contextKey string

const UserIDKey contextKey = "userId"

const devUser = "dev-user"

func ExtractUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Traefik BasicAuth sets this header
		userID := r.Header.Get("X-Auth-User")

		if userID == "" {
			userID = r.Header.Get("X-Forwarded-User")
		}
		if userID == "" {
			userID = r.Header.Get("Remote-User")
		}

		// Local development without a proxy in front.
		if userID == "" {
			userID = devUser
			log.Printf("no auth header on %s %s, using %s", r.Method, r.URL.Path, devUser)
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
