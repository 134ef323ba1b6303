package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fraudshield/screening/internal/application"
)

func (h *Handler) saveResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, "save_result")
	if !ok {
		return
	}
	var req application.SaveResultRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "save_result", err)
		return
	}
	resp, err := h.service.SaveResult(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "save_result", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, "get_result")
	if !ok {
		return
	}
	resp, err := h.service.GetResult(r.Context(), actor, chi.URLParam(r, "transactionId"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_result", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, "list_results")
	if !ok {
		return
	}
	resp, err := h.service.ListResults(r.Context(), actor)
	if err != nil {
		writeMappedError(r.Context(), w, "list_results", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
