// Package memory keeps accounts, factors and pending enrollments in process.
// It backs the local host when no database is configured, and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

type Store struct {
	clock clock.Clocker

	mu       sync.RWMutex
	accounts map[string]entity.Account
	factors  map[string][]entity.StoredFactor
	pending  map[string]entity.PendingEnrollment
}

func NewStore(clk clock.Clocker) *Store {
	return &Store{
		clock:    clk,
		accounts: make(map[string]entity.Account),
		factors:  make(map[string][]entity.StoredFactor),
		pending:  make(map[string]entity.PendingEnrollment),
	}
}

func (s *Store) GetAccount(_ context.Context, id string) (*entity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	acc.AccessToken = ""
	return &acc, nil
}

func (s *Store) UpsertAccount(_ context.Context, acc entity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc.AccessToken = ""
	s.accounts[acc.ID] = acc
	return nil
}

func (s *Store) ListFactors(_ context.Context, accountID string) ([]entity.StoredFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.factors[accountID]), nil
}

// CreateFactor allows one factor per kind and account.
func (s *Store) CreateFactor(_ context.Context, f entity.StoredFactor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.factors[f.AccountID], func(x entity.StoredFactor) bool { return x.Kind == f.Kind }) {
		return goerror.ErrConflict
	}
	s.factors[f.AccountID] = append(s.factors[f.AccountID], f)
	return nil
}

func (s *Store) DeleteFactor(_ context.Context, accountID, factorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs := s.factors[accountID]
	i := slices.IndexFunc(fs, func(x entity.StoredFactor) bool { return x.ID == factorID })
	if i < 0 {
		return goerror.ErrNotFound
	}

	fs = slices.Delete(fs, i, i+1)
	if len(fs) == 0 {
		delete(s.factors, accountID)
	} else {
		s.factors[accountID] = fs
	}
	return nil
}

func (s *Store) PutPending(_ context.Context, p entity.PendingEnrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[p.AccountID] = p
	return nil
}

func (s *Store) GetPending(_ context.Context, accountID string) (*entity.PendingEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[accountID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if !s.clock.Now().Before(p.ExpiresAt) {
		delete(s.pending, accountID)
		return nil, goerror.ErrNotFound
	}
	return &p, nil
}

func (s *Store) DeletePending(_ context.Context, accountID, verificationHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[accountID]
	if !ok || p.VerificationHash != verificationHash {
		return goerror.ErrNotFound
	}
	delete(s.pending, accountID)
	return nil
}
