package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// AccountStore persists login credentials. Username and AccountID are both
// unique; Create must fail with ErrAlreadyExists on either collision so that
// callers can resolve provisioning races.
type AccountStore interface {
	Create(ctx context.Context, a Account) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	FindByAccountID(ctx context.Context, accountID string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Update(ctx context.Context, a Account) (Account, error)
	Delete(ctx context.Context, accountID string) error
}

// InMemoryStore implements AccountStore for tests and database-less runs.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Account
	byUsername map[string]string // username -> accountId
	now        func() time.Time
}

// NewInMemoryStore creates an empty credential store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[string]Account),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

var _ AccountStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) Create(ctx context.Context, a Account) (Account, error) {
	a.Username = strings.TrimSpace(strings.ToLower(a.Username))
	if a.AccountID == "" || a.Username == "" {
		return Account{}, fmt.Errorf("accountId and username are required: %w", ErrInvalidInput)
	}
	if !ValidRole(a.Role) {
		return Account{}, fmt.Errorf("role %q: %w", a.Role, ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.AccountID]; ok {
		return Account{}, fmt.Errorf("account %s: %w", a.AccountID, ErrAlreadyExists)
	}
	if _, ok := s.byUsername[a.Username]; ok {
		return Account{}, fmt.Errorf("username %s: %w", a.Username, ErrAlreadyExists)
	}
	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.byID[a.AccountID] = a
	s.byUsername[a.Username] = a.AccountID
	return a, nil
}

func (s *InMemoryStore) FindByUsername(ctx context.Context, username string) (Account, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return Account{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemoryStore) FindByAccountID(ctx context.Context, accountID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[accountID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, a Account) (Account, error) {
	a.Username = strings.TrimSpace(strings.ToLower(a.Username))
	if a.Role != "" && !ValidRole(a.Role) {
		return Account{}, fmt.Errorf("role %q: %w", a.Role, ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[a.AccountID]
	if !ok {
		return Account{}, ErrNotFound
	}
	if a.Username != "" && a.Username != existing.Username {
		if _, taken := s.byUsername[a.Username]; taken {
			return Account{}, fmt.Errorf("username %s: %w", a.Username, ErrAlreadyExists)
		}
		delete(s.byUsername, existing.Username)
		s.byUsername[a.Username] = a.AccountID
		existing.Username = a.Username
	}
	if a.Role != "" {
		existing.Role = a.Role
	}
	if a.PasswordHash != "" {
		existing.PasswordHash = a.PasswordHash
	}
	existing.UpdatedAt = s.now().UTC()
	s.byID[a.AccountID] = existing
	return existing, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return ErrNotFound
	}
	delete(s.byUsername, a.Username)
	delete(s.byID, accountID)
	return nil
}
