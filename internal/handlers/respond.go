package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/xelth-com/eckreceive/internal/apperr"
	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/reconcile"
	"github.com/xelth-com/eckreceive/internal/storage"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error    string `json:"error"`
	Endpoint string `json:"endpoint"`
	Status   int    `json:"status"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps err to a status code and sends it with the endpoint it came from
func respondError(w http.ResponseWriter, req *http.Request, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Wrap(err, statusFor(err), endpoint(req), err.Error())
	}
	if ae.Endpoint == "" {
		ae.Endpoint = endpoint(req)
	}
	status := apperr.Status(ae)
	respondJSON(w, status, errorBody{Error: ae.Message, Endpoint: ae.Endpoint, Status: status})
}

// badRequest reports malformed input
func badRequest(w http.ResponseWriter, req *http.Request, msg string) {
	respondError(w, req, apperr.New(http.StatusBadRequest, endpoint(req), msg))
}

func endpoint(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return req.Method + " " + tpl
		}
	}
	return req.Method + " " + req.URL.Path
}

func statusFor(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.Is(err, reconcile.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, reconcile.ErrSessionNotFound),
		errors.Is(err, reconcile.ErrUnknownItem),
		errors.Is(err, reconcile.ErrUnknownLine):
		return http.StatusNotFound
	case errors.Is(err, reconcile.ErrInvalidTransition),
		errors.Is(err, reconcile.ErrWrongStage),
		errors.Is(err, reconcile.ErrSessionClosed),
		errors.Is(err, reconcile.ErrLineTaken),
		errors.Is(err, catalog.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, reconcile.ErrEmptySession),
		errors.Is(err, reconcile.ErrMissingTotal),
		errors.Is(err, reconcile.ErrIncomplete),
		errors.Is(err, catalog.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// readJSON decodes the request body into v
func readJSON(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		badRequest(w, req, "Invalid request body")
		return false
	}
	return true
}

// decode reads a JSON body into v and validates its struct tags
func (r *Router) decode(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	if !readJSON(w, req, v) {
		return false
	}
	if err := r.validate.Struct(v); err != nil {
		respondError(w, req, err)
		return false
	}
	return true
}
