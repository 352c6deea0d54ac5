package api

import (
	"net/http"

	"github.com/marmos91/filesmanager/pkg/auth"
	"github.com/marmos91/filesmanager/pkg/metadata"
)

// userResponse is the public view of a user.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newUserResponse(u *metadata.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email}
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var body auth.RegisterRequest
	if err := h.decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.auth.Register(r.Context(), body.Email, body.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *handler) connect(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.Connect(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Disconnect(r.Context(), r.Header.Get(TokenHeader)); err != nil {
		writeAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserResponse(userFrom(r.Context())))
}
