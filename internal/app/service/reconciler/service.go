// Package reconciler applies gateway deposit notifications to customer wallets.
package reconciler

import (
	"aishop/internal/app/apperr"
	"aishop/internal/app/bonus"
	"aishop/internal/app/logger"
	"aishop/internal/app/model"
	"aishop/internal/app/storage"
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

type Outcome int

const (
	OutcomeCredited Outcome = iota + 1
	OutcomeDuplicate
	OutcomePaymentFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCredited:
		return "credited"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomePaymentFailed:
		return "payment_failed"
	}
	return "unknown"
}

var reconcileTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aishop",
		Name:      "reconcile_total",
		Help:      "Deposit notifications by reconciliation outcome.",
	},
	[]string{"outcome"},
)

// Notifier receives notifications after a credit is durably applied.
type Notifier interface {
	Enqueue(n *model.DepositNotification) error
}

type Result struct {
	Outcome     Outcome
	Transaction *model.Transaction
	Wallet      *model.Wallet
}

type Service struct {
	ledger   storage.LedgerRepository
	notifier Notifier
	timeout  time.Duration
}

func (s *Service) LoggerComponent() string {
	return "Reconciler.Service"
}

func New(ledger storage.LedgerRepository, notifier Notifier, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		ledger:   ledger,
		notifier: notifier,
		timeout:  timeout,
	}
}

// Reconcile applies the callback at most once per gateway transaction id.
// A returned error means nothing was committed and the delivery may be retried.
func (s *Service) Reconcile(ctx context.Context, in *model.Callback) (*Result, error) {
	l := logger.Get(ctx, s).With().Object("callback", in).Logger()

	if in.TransactionID == "" || in.CustomerID == "" || in.Amount <= 0 {
		return nil, apperr.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	m := &model.Transaction{
		TransactionID: in.TransactionID,
		OrderID:       in.OrderID,
		CustomerID:    in.CustomerID,
		AmountVND:     int64(in.Amount),
		GatewayStatus: in.Status,
		CreatedAt:     time.Now(),
	}

	if !in.Succeeded() {
		if err := s.ledger.RecordFailed(ctx, m); err != nil {
			l.Error().Err(err).Msg("Failed payment note not recorded")
		}
		l.Info().Msg("Gateway reported payment failure")
		return s.done(OutcomePaymentFailed, m, nil), nil
	}

	existing, err := s.ledger.ReadCompleted(ctx, in.TransactionID)
	if err == nil {
		l.Info().Msg("Already processed")
		return s.done(OutcomeDuplicate, existing, nil), nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}

	m.AmountCredited = model.ConvertVND(m.AmountVND)
	m.Bonus = bonus.Compute(m.AmountCredited)

	w, err := s.ledger.Apply(ctx, m)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			l.Info().Msg("Lost race to concurrent delivery")
			return s.done(OutcomeDuplicate, m, nil), nil
		}
		return nil, fmt.Errorf("ledger apply: %w", err)
	}

	l.Info().
		Int64("amount_credited", m.AmountCredited).
		Int64("bonus", m.Bonus).
		Msg("Deposit credited")

	n := &model.DepositNotification{
		CustomerID:     m.CustomerID,
		TransactionID:  m.TransactionID,
		AmountCredited: m.AmountCredited,
		Bonus:          m.Bonus,
		Total:          m.Total(),
		Balance:        w.Balance,
	}
	if m.ProcessedAt != nil {
		n.ProcessedAt = *m.ProcessedAt
	}
	if s.notifier != nil {
		if err := s.notifier.Enqueue(n); err != nil {
			l.Warn().Err(err).Msg("Notification not enqueued")
		}
	}

	return s.done(OutcomeCredited, m, w), nil
}

func (s *Service) done(o Outcome, m *model.Transaction, w *model.Wallet) *Result {
	reconcileTotal.WithLabelValues(o.String()).Inc()
	return &Result{Outcome: o, Transaction: m, Wallet: w}
}
