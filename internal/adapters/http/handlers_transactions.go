package http

import (
	"net/http"

	"github.com/fraudshield/screening/internal/application"
)

func (h *Handler) analyzeTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, "analyze_transaction")
	if !ok {
		return
	}
	var req application.AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "analyze_transaction", err)
		return
	}
	resp, err := h.service.Analyze(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "analyze_transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
