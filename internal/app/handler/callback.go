package handler

import (
	"aishop/internal/app/logger"
	"aishop/internal/app/model"
	"aishop/internal/app/service/reconciler"
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	MsgProcessed           = "Payment processed successfully"
	MsgAlreadyProcessed    = "Already processed"
	MsgPaymentFailed       = "Payment failed"
	MsgInvalidBody         = "Invalid request body"
	MsgMissingFields       = "Missing required fields"
	MsgUnauthorized        = "Unauthorized - invalid credentials"
	MsgServerConfiguration = "Server configuration error"
	MsgProcessingError     = "Error processing callback"
)

const maxCallbackBody = 64 << 10

type Reconciler interface {
	Reconcile(ctx context.Context, in *model.Callback) (*reconciler.Result, error)
}

type CallbackHandler struct {
	reconciler    Reconciler
	storefrontURL string
}

func NewCallbackHandler(rec Reconciler, storefrontURL string) *CallbackHandler {
	return &CallbackHandler{
		reconciler:    rec,
		storefrontURL: strings.TrimRight(storefrontURL, "/"),
	}
}

// Receive handles the authenticated server-to-server payment notification.
func (h *CallbackHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.Get(ctx, "Handler.Callback.Receive")

	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBody)

	in := &model.Callback{}
	if err := readBody(r, in); err != nil {
		l.Warn().Err(err).Msg("Malformed callback body")
		WriteEnvelope(w, false, MsgInvalidBody, http.StatusBadRequest)
		return
	}

	l = logger.Logger{Logger: l.With().Object("callback", in).Logger()}

	fields, err := invalidFields(in)
	if err != nil {
		l.Error().Err(err).Msg("Validation failed")
		WriteEnvelope(w, false, MsgInvalidBody, http.StatusBadRequest)
		return
	}
	if len(fields) > 0 {
		l.Warn().Strs("fields", fields).Msg("Callback is missing required fields")
		WriteEnvelope(w, false, MsgMissingFields, http.StatusBadRequest)
		return
	}

	res, err := h.reconciler.Reconcile(ctx, in)
	if err != nil {
		l.Error().Err(err).Msg("Callback processing failed")
		WriteEnvelope(w, false, MsgProcessingError, http.StatusInternalServerError)
		return
	}

	switch res.Outcome {
	case reconciler.OutcomeCredited:
		WriteEnvelope(w, true, MsgProcessed, http.StatusOK)
	case reconciler.OutcomeDuplicate:
		WriteEnvelope(w, true, MsgAlreadyProcessed, http.StatusOK)
	case reconciler.OutcomePaymentFailed:
		WriteEnvelope(w, false, MsgPaymentFailed, http.StatusOK)
	default:
		l.Error().Str("outcome", res.Outcome.String()).Msg("Unexpected outcome")
		WriteEnvelope(w, false, MsgProcessingError, http.StatusInternalServerError)
	}
}

// Redirect forwards a browser redirect from the gateway to the wallet page.
// It is display only and never touches the ledger.
func (h *CallbackHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	v := url.Values{}
	v.Set("payment_status", q.Get("status"))
	v.Set("transaction_id", q.Get("transaction_id"))
	v.Set("amount", q.Get("amount"))

	l := logger.Get(r.Context(), "Handler.Callback.Redirect")
	l.Debug().
		Str("transaction_id", q.Get("transaction_id")).
		Str("status", q.Get("status")).
		Msg("Redirecting to wallet")

	http.Redirect(w, r, h.storefrontURL+"/wallet?"+v.Encode(), http.StatusFound)
}
