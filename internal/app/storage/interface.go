//go:generate mockgen -source=./interface.go -destination=./mock/storage.go -package=storagemock
package storage

import (
	"aishop/internal/app/model"
	"context"
)

type LedgerRepository interface {
	// ReadCompleted returns the completed model.Transaction for a gateway transaction id
	ReadCompleted(ctx context.Context, transactionID string) (*model.Transaction, error)
	// Apply inserts a completed model.Transaction and credits the customer wallet atomically.
	// Returns apperr.ErrConflict when the transaction id was already completed.
	Apply(ctx context.Context, m *model.Transaction) (*model.Wallet, error)
	// RecordFailed appends a failed model.Transaction note
	RecordFailed(ctx context.Context, m *model.Transaction) error
	// AllByCustomerID returns the newest ledger entries of the customer
	AllByCustomerID(ctx context.Context, customerID string, limit int) ([]*model.Transaction, error)
}

type WalletRepository interface {
	// Read model.Wallet of the customer
	Read(ctx context.Context, customerID string) (*model.Wallet, error)
}
