package model

import "time"

const NotificationTypeDepositCredited = "wallet.deposit.credited"

// DepositNotification is dispatched to the customer after a credit commits.
type DepositNotification struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	CustomerID     string    `json:"customer_id"`
	TransactionID  string    `json:"transaction_id"`
	AmountCredited int64     `json:"amount_credited"`
	Bonus          int64     `json:"bonus"`
	Total          int64     `json:"total"`
	Balance        int64     `json:"balance"`
	ProcessedAt    time.Time `json:"processed_at"`
}
