package handler

import (
	"net/http"

	"github.com/iho/digipay/internal/adapter/http/dto"
)

// ReconciliationHandler serves the admin reconciliation report.
type ReconciliationHandler struct {
	recon ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(recon ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{recon: recon}
}

// Report checks every wallet against its profile shadow.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.recon.Report(r.Context(), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromDomain(report))
}
