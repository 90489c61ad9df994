package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/digipay/internal/adapter/http/dto"
	"github.com/iho/digipay/internal/infrastructure/metrics"
	"github.com/iho/digipay/internal/usecase"
)

// WalletHandler handles wallet and money movement requests.
type WalletHandler struct {
	transfers TransferService
	wallets   WalletService
	retrier   Retrier
	metrics   *metrics.Metrics
}

// NewWalletHandler creates a new WalletHandler. retrier and m may be nil.
func NewWalletHandler(transfers TransferService, wallets WalletService, retrier Retrier, m *metrics.Metrics) *WalletHandler {
	return &WalletHandler{
		transfers: transfers,
		wallets:   wallets,
		retrier:   retrier,
		metrics:   m,
	}
}

// Me returns the caller's wallet.
func (h *WalletHandler) Me(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.GetWallet(r.Context(), caller(r), "")
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Get returns the wallet of another owner.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.GetWallet(r.Context(), caller(r), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// TopUp credits the caller's wallet.
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.operate(w, r, "top_up", func(ctx context.Context) (*usecase.OperationResult, error) {
		return h.transfers.TopUp(ctx, caller(r), req.Amount)
	})
}

// Withdraw debits the caller's wallet.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.operate(w, r, "withdraw", func(ctx context.Context) (*usecase.OperationResult, error) {
		return h.transfers.Withdraw(ctx, caller(r), req.Amount)
	})
}

// Send moves money from the caller to another user.
func (h *WalletHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.operate(w, r, "send", func(ctx context.Context) (*usecase.OperationResult, error) {
		return h.transfers.Send(ctx, caller(r), req.ToOwnerID, req.Amount)
	})
}

// CashIn moves money from the calling agent to a user.
func (h *WalletHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.operate(w, r, "cash_in", func(ctx context.Context) (*usecase.OperationResult, error) {
		return h.transfers.CashIn(ctx, caller(r), req.ToOwnerID, req.Amount)
	})
}

// CashOut moves money from a user to the calling agent.
func (h *WalletHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	var req dto.CashOutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.operate(w, r, "cash_out", func(ctx context.Context) (*usecase.OperationResult, error) {
		return h.transfers.CashOut(ctx, caller(r), req.FromOwnerID, req.Amount)
	})
}

// SetBlocked sets or toggles a wallet's block flag.
func (h *WalletHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	var req dto.BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wallet, err := h.wallets.SetBlocked(r.Context(), caller(r), chi.URLParam(r, "walletID"), req.Blocked)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

func (h *WalletHandler) operate(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context) (*usecase.OperationResult, error)) {
	ctx := r.Context()

	var result *usecase.OperationResult
	attempts := 0
	run := func() error {
		attempts++
		var err error
		result, err = fn(ctx)
		return err
	}

	var err error
	if h.retrier != nil {
		err = h.retrier.Retry(ctx, run)
	} else {
		err = run()
	}

	if attempts > 1 && h.metrics != nil {
		h.metrics.HTTPRetries.WithLabelValues(op).Add(float64(attempts - 1))
	}

	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OperationFromResult(result))
}
