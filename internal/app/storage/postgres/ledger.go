package postgres

import (
	"aishop/internal/app/apperr"
	"aishop/internal/app/logger"
	"aishop/internal/app/model"
	"aishop/internal/app/storage"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"time"
)

// storage.LedgerRepository interface implementation
var _ storage.LedgerRepository = (*LedgerRepository)(nil)

type LedgerRepository struct {
	db *sql.DB
}

func (r *LedgerRepository) LoggerComponent() string {
	return "LedgerRepository"
}

func NewLedgerRepository(db *sql.DB) (*LedgerRepository, error) {
	return &LedgerRepository{db: db}, nil
}

const ledgerColumns = `id, transaction_id, order_id, customer_id, amount_vnd, amount_credited, bonus, status, gateway_status, created_at, processed_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*model.Transaction, error) {
	m := &model.Transaction{}
	var processedAt sql.NullTime
	err := row.Scan(&m.ID, &m.TransactionID, &m.OrderID, &m.CustomerID, &m.AmountVND,
		&m.AmountCredited, &m.Bonus, &m.Status, &m.GatewayStatus, &m.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		t := processedAt.Time
		m.ProcessedAt = &t
	}
	return m, nil
}

// ReadCompleted implementation of interface storage.LedgerRepository
func (r *LedgerRepository) ReadCompleted(ctx context.Context, transactionID string) (*model.Transaction, error) {
	const SQL = `
		SELECT ` + ledgerColumns + `
		FROM ledger
		WHERE transaction_id=$1 AND status='completed'
`
	m, err := scanTransaction(r.db.QueryRowContext(ctx, SQL, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("select: %w", err)
	}

	return m, nil
}

// Apply implementation of interface storage.LedgerRepository.
// The ledger insert and the wallet increment share one transaction; the partial
// unique index on completed transaction ids makes a concurrent duplicate fail
// with a unique violation once the winner commits.
func (r *LedgerRepository) Apply(ctx context.Context, m *model.Transaction) (*model.Wallet, error) {
	l := logger.Get(ctx, r).With().
		Str("method", "Apply").
		Str("transaction_id", m.TransactionID).
		Logger()

	if m.TransactionID == "" || m.CustomerID == "" {
		return nil, apperr.ErrInvalidInput
	}

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.ProcessedAt = &now
	m.Status = model.TransactionStatusCompleted

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("tx begin: %w", err)
	}

	const sqlInsert = `
		INSERT INTO ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err = tx.ExecContext(ctx, sqlInsert, m.ID, m.TransactionID, m.OrderID, m.CustomerID, m.AmountVND,
		m.AmountCredited, m.Bonus, m.Status, m.GatewayStatus, m.CreatedAt, m.ProcessedAt)
	if err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			l.Debug().Msg("Already completed")
			return nil, apperr.ErrConflict
		}
		return nil, fmt.Errorf("ledger insert: %w", err)
	}

	const sqlCredit = `
		INSERT INTO wallets (customer_id, balance, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id)
		DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING balance
`
	w := &model.Wallet{CustomerID: m.CustomerID, UpdatedAt: now}
	if err := tx.QueryRowContext(ctx, sqlCredit, m.CustomerID, m.Total(), now).Scan(&w.Balance); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("wallet credit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit: %w", err)
	}

	l.Debug().Dur("duration", time.Since(now)).Msg("Ledger entry applied")

	return w, nil
}

// RecordFailed implementation of interface storage.LedgerRepository
func (r *LedgerRepository) RecordFailed(ctx context.Context, m *model.Transaction) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.Status = model.TransactionStatusFailed
	m.ProcessedAt = nil

	const SQL = `
		INSERT INTO ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.db.ExecContext(ctx, SQL, m.ID, m.TransactionID, m.OrderID, m.CustomerID, m.AmountVND,
		m.AmountCredited, m.Bonus, m.Status, m.GatewayStatus, m.CreatedAt, m.ProcessedAt)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	return nil
}

// AllByCustomerID implementation of interface storage.LedgerRepository
func (r *LedgerRepository) AllByCustomerID(ctx context.Context, customerID string, limit int) ([]*model.Transaction, error) {
	l := logger.Get(ctx, r).With().Str("method", "AllByCustomerID").Logger()

	const SQL = `
		SELECT ` + ledgerColumns + `
		FROM ledger
		WHERE customer_id=$1
		ORDER BY created_at DESC
		LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, SQL, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	res := make([]*model.Transaction, 0)
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			l.Debug().Err(err).Send()
			return nil, fmt.Errorf("scan: %w", err)
		}
		res = append(res, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return res, nil
}
