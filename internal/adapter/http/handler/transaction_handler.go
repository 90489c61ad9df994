package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/digipay/internal/adapter/http/dto"
	"github.com/iho/digipay/internal/usecase"
)

// TransactionHandler handles ledger history requests.
type TransactionHandler struct {
	ledger LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// List lists records for ?userId= (default the caller), or every record
// with ?all=true for admins.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := parseBoolQuery(r, "all")
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.ledger.QueryForParticipant(r.Context(), caller(r), usecase.HistoryQuery{
		OwnerID: r.URL.Query().Get("userId"),
		All:     all,
		Limit:   parseIntQuery(r, "limit", 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(records))
}

// Get retrieves a record by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.ledger.GetTransaction(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(record))
}
