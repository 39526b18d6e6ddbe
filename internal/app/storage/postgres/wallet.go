package postgres

import (
	"aishop/internal/app/apperr"
	"aishop/internal/app/model"
	"aishop/internal/app/storage"
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// storage.WalletRepository interface implementation
var _ storage.WalletRepository = (*WalletRepository)(nil)

type WalletRepository struct {
	db *sql.DB
}

func (r *WalletRepository) LoggerComponent() string {
	return "WalletRepository"
}

func NewWalletRepository(db *sql.DB) (*WalletRepository, error) {
	return &WalletRepository{db: db}, nil
}

// Read implementation of interface storage.WalletRepository
func (r *WalletRepository) Read(ctx context.Context, customerID string) (*model.Wallet, error) {
	const SQL = `
		SELECT customer_id, balance, updated_at
		FROM wallets
		WHERE customer_id=$1
`
	w := &model.Wallet{}

	err := r.db.QueryRowContext(ctx, SQL, customerID).Scan(&w.CustomerID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("select: %w", err)
	}

	return w, nil
}
