package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/apperr"
)

func (r *Router) listAliases(w http.ResponseWriter, req *http.Request) {
	if err := r.aliases.Load(req.Context()); err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, r.aliases.All())
}

func (r *Router) deleteAlias(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(req)["aliasId"], 10, 64)
	if err != nil {
		badRequest(w, req, "invalid alias id")
		return
	}
	if err := r.aliases.Delete(req.Context(), uint(id)); err != nil {
		if errors.Is(err, alias.ErrNotFound) {
			err = apperr.Wrap(err, http.StatusNotFound, endpoint(req), "alias not found")
		}
		respondError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
