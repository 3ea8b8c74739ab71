package handler

import (
	"context"
	"net/http"
)

// UserIDHeader carries the authenticated user identity, injected by the
// platform gateway after it validates the session. Authentication itself is
// external to this service; an absent header means an unauthenticated call.
const UserIDHeader = "X-User-Id"

type contextKey string

const userIDContextKey contextKey = "userID"

// RequireIdentity rejects requests without an authenticated user identity
// and stores the user ID on the request context for handlers downstream.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			writeUnauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFromContext returns the authenticated user ID set by RequireIdentity.
func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}
