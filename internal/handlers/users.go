package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oviehub/moviehub/internal/logger"
	"github.com/oviehub/moviehub/internal/store"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) postRegister(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return badRequest("name and a valid email are required")
	}
	if len(req.Password) < 6 {
		return badRequest("password must be at least 6 characters")
	}

	user, err := h.store.CreateUser(ctx, name, email, hashPassword(req.Password))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return badRequest("email already registered")
		}
		slog.Warn("register: create user failed", logger.Error(err))
		return err
	}

	sess, err := h.store.CreateSession(ctx, user.ID, sessionTTL)
	if err != nil {
		slog.Warn("register: create session failed", logger.Error(err))
		return err
	}

	setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusCreated, &userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
	return nil
}

func (h *Handler) postLogin(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}

	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if isNoRows(err) {
			return unauthorized("invalid email or password")
		}
		return err
	}

	hashed := hashPassword(req.Password)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(user.PasswordHash)) != 1 {
		slog.Warn("login: invalid password", slog.String("remote", r.RemoteAddr))
		return unauthorized("invalid email or password")
	}

	sess, err := h.store.CreateSession(ctx, user.ID, sessionTTL)
	if err != nil {
		return err
	}

	setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, &userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
	return nil
}

func (h *Handler) postLogout(w http.ResponseWriter, r *http.Request) error {
	if token := sessionToken(r); token != "" {
		if err := h.store.DeleteSession(r.Context(), token); err != nil {
			slog.Warn("logout: delete session failed", logger.Error(err))
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) error {
	user, ok := userFromContext(r.Context())
	if !ok {
		return unauthorized("unauthorized")
	}
	writeJSON(w, http.StatusOK, &userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
	return nil
}
