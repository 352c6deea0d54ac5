package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/auth"
	"github.com/marmos91/filesmanager/pkg/files"
)

// errorResponse is the body of every error.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("Request %s %s failed: request_id=%s err=%v",
		r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
	writeError(w, http.StatusInternalServerError, files.MsgInternalServerErr)
}

// writeFilesError maps a File Manager error to its status code.
func writeFilesError(w http.ResponseWriter, r *http.Request, err error) {
	var ferr *files.Error
	if !errors.As(err, &ferr) {
		writeInternalError(w, r, err)
		return
	}

	switch ferr.Kind {
	case files.KindValidation, files.KindInvalidOperation:
		writeError(w, http.StatusBadRequest, ferr.Message)
	case files.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, files.MsgUnauthorized)
	case files.KindNotFound:
		writeError(w, http.StatusNotFound, files.MsgNotFound)
	default:
		writeInternalError(w, r, err)
	}
}

// writeAuthError maps an auth.Service error to its status code.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, files.MsgUnauthorized)
	default:
		writeInternalError(w, r, err)
	}
}
