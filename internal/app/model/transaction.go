package model

import (
	"github.com/google/uuid"
	"time"
)

// Transaction is a ledger entry for one gateway payment notification.
type Transaction struct {
	ID             uuid.UUID         `json:"-"`
	TransactionID  string            `json:"transaction_id"`
	OrderID        string            `json:"order_id,omitempty"`
	CustomerID     string            `json:"-"`
	AmountVND      int64             `json:"amount_vnd"`
	AmountCredited int64             `json:"amount_credited"`
	Bonus          int64             `json:"bonus"`
	Status         TransactionStatus `json:"status"`
	GatewayStatus  string            `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
}

// Total wallet units added by the entry.
func (t *Transaction) Total() int64 {
	return t.AmountCredited + t.Bonus
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// VNDPerUnit is the number of gateway currency units converted into one wallet unit.
const VNDPerUnit = 1000

// ConvertVND truncates a gateway amount into wallet units.
func ConvertVND(amount int64) int64 {
	return amount / VNDPerUnit
}
