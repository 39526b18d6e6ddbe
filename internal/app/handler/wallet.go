package handler

import (
	"aishop/internal/app/apperr"
	"aishop/internal/app/bonus"
	"aishop/internal/app/logger"
	"aishop/internal/app/storage"
	"errors"
	"net/http"
	"strconv"
)

const defaultHistoryLimit = 50

type WalletHandler struct {
	wallets storage.WalletRepository
	ledger  storage.LedgerRepository
}

func NewWalletHandler(wallets storage.WalletRepository, ledger storage.LedgerRepository) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		ledger:  ledger,
	}
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.Get(ctx, "Handler.Wallet.Balance")

	customerID, err := ReadContextCustomer(ctx)
	if err != nil {
		l.Debug().Err(err).Msg("Unauthorized")
		WriteError(w, err, http.StatusUnauthorized)
		return
	}

	out := struct {
		CustomerID string `json:"customer_id"`
		Balance    int64  `json:"balance"`
	}{CustomerID: customerID}

	wm, err := h.wallets.Read(ctx, customerID)
	switch {
	case err == nil:
		out.Balance = wm.Balance
	case errors.Is(err, apperr.ErrNotFound):
	default:
		l.Error().Err(err).Send()
		WriteError(w, err, http.StatusInternalServerError)
		return
	}

	WriteResponse(w, out, http.StatusOK)
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.Get(ctx, "Handler.Wallet.Transactions")

	customerID, err := ReadContextCustomer(ctx)
	if err != nil {
		l.Debug().Err(err).Msg("Unauthorized")
		WriteError(w, err, http.StatusUnauthorized)
		return
	}

	in := struct {
		Limit int `validate:"min=1,max=200"`
	}{Limit: defaultHistoryLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if in.Limit, err = strconv.Atoi(raw); err != nil {
			WriteError(w, apperr.ErrInvalidInput, http.StatusBadRequest)
			return
		}
	}

	if !validateData(w, in) {
		return
	}

	mm, err := h.ledger.AllByCustomerID(ctx, customerID, in.Limit)
	if err != nil {
		l.Error().Err(err).Send()
		WriteError(w, err, http.StatusInternalServerError)
		return
	}

	if len(mm) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	WriteResponse(w, mm, http.StatusOK)
}

func (h *WalletHandler) BonusTiers(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, bonus.Tiers(), http.StatusOK)
}
