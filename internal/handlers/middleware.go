package handlers

import (
	"context"
	"net/http"

	"github.com/oviehub/moviehub/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

func (h *Handler) MiddlewareRequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, &errorResponse{Message: "unauthorized"})
			return
		}

		user, err := h.store.UserBySession(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, &errorResponse{Message: "unauthorized"})
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (store.User, bool) {
	user, ok := ctx.Value(userContextKey).(store.User)
	return user, ok
}
