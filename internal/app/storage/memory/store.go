// Package memory is an in-process implementation of the storage repositories.
// A single mutex serialises every check-and-apply, which gives the same
// single-writer-wins guarantee the postgres unique index provides.
package memory

import (
	"aishop/internal/app/apperr"
	"aishop/internal/app/model"
	"aishop/internal/app/storage"
	"context"
	"github.com/google/uuid"
	"sort"
	"sync"
	"time"
)

var (
	_ storage.LedgerRepository = (*Store)(nil)
	_ storage.WalletRepository = (*Store)(nil)
)

// Fault is called after the ledger row is staged and before the wallet is credited.
// A non-nil error aborts the apply and discards the staged row.
type Fault func(m *model.Transaction) error

type Store struct {
	mu        sync.Mutex
	ledger    []*model.Transaction
	completed map[string]int
	wallets   map[string]*model.Wallet
	fault     Fault
}

func (s *Store) LoggerComponent() string {
	return "MemoryStore"
}

func New() *Store {
	return &Store{
		completed: make(map[string]int),
		wallets:   make(map[string]*model.Wallet),
	}
}

// SetFault installs f for subsequent applies; nil clears it.
func (s *Store) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// ReadCompleted implementation of interface storage.LedgerRepository
func (s *Store) ReadCompleted(ctx context.Context, transactionID string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.completed[transactionID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	m := *s.ledger[i]
	return &m, nil
}

// Apply implementation of interface storage.LedgerRepository
func (s *Store) Apply(ctx context.Context, m *model.Transaction) (*model.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.completed[m.TransactionID]; ok {
		return nil, apperr.ErrConflict
	}

	row := *m
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	now := time.Now()
	row.Status = model.TransactionStatusCompleted
	row.ProcessedAt = &now

	if s.fault != nil {
		if err := s.fault(&row); err != nil {
			return nil, err
		}
	}

	w, ok := s.wallets[row.CustomerID]
	if !ok {
		w = &model.Wallet{CustomerID: row.CustomerID}
		s.wallets[row.CustomerID] = w
	}
	w.Balance += row.Total()
	w.UpdatedAt = now

	s.ledger = append(s.ledger, &row)
	s.completed[row.TransactionID] = len(s.ledger) - 1

	*m = row
	out := *w
	return &out, nil
}

// RecordFailed implementation of interface storage.LedgerRepository
func (s *Store) RecordFailed(ctx context.Context, m *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *m
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	row.Status = model.TransactionStatusFailed
	row.ProcessedAt = nil
	s.ledger = append(s.ledger, &row)

	return nil
}

// AllByCustomerID implementation of interface storage.LedgerRepository
func (s *Store) AllByCustomerID(ctx context.Context, customerID string, limit int) ([]*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]*model.Transaction, 0)
	for _, row := range s.ledger {
		if row.CustomerID == customerID {
			m := *row
			res = append(res, &m)
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}

	return res, nil
}

// Read implementation of interface storage.WalletRepository
func (s *Store) Read(ctx context.Context, customerID string) (*model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[customerID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := *w
	return &out, nil
}

// Count returns the number of ledger rows with the given gateway id and status.
func (s *Store) Count(transactionID string, status model.TransactionStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, row := range s.ledger {
		if row.TransactionID == transactionID && row.Status == status {
			n++
		}
	}
	return n
}

// Len returns the total number of ledger rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}
