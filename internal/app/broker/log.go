package broker

import (
	"aishop/internal/app/logger"
	"aishop/internal/app/model"
	"context"
)

// LogPublisher writes notifications to the log, for local runs.
type LogPublisher struct {
	logger logger.Logger
}

func NewLogPublisher(l logger.Logger) *LogPublisher {
	return &LogPublisher{logger: l.WithComponent("Broker.Log")}
}

func (p *LogPublisher) Publish(ctx context.Context, n *model.DepositNotification) error {
	p.logger.Info().
		Str("event_id", n.EventID).
		Str("event_type", n.Type).
		Str("transaction_id", n.TransactionID).
		Int64("total", n.Total).
		Msg("Deposit notification")
	return nil
}
