// Package identity provisions login credentials as a side effect of entity
// creation: every student, teacher and admin record gets exactly one
// account, created idempotently so entity-creation retries stay safe.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gradebook.org/internal/auth"
)

// Hasher turns the institutional identifier into the initial password hash.
type Hasher func(plaintext string) (string, error)

// Provisioner creates deduplicated accounts in the credential store.
type Provisioner struct {
	store auth.AccountStore
	hash  Hasher
}

// NewProvisioner constructs a Provisioner. A nil hasher falls back to the
// auth package's bcrypt hash.
func NewProvisioner(store auth.AccountStore, hash Hasher) *Provisioner {
	if hash == nil {
		hash = auth.HashPassword
	}
	return &Provisioner{store: store, hash: hash}
}

// Provision guarantees an account exists for the given identity and returns
// it. If an account with username == email already exists it is returned
// unchanged: no error, no duplicate, no password reset. Otherwise a new
// account is created with accountId = institutionalID and the institutional
// identifier (hashed) as the initial password.
//
// A uniqueness violation raced by a concurrent Provision for the same email
// is resolved by re-fetching the winner's record.
func (p *Provisioner) Provision(ctx context.Context, email, institutionalID, role string) (auth.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	institutionalID = strings.TrimSpace(institutionalID)
	if email == "" || institutionalID == "" {
		return auth.Account{}, fmt.Errorf("email and institutional id are required: %w", auth.ErrInvalidInput)
	}
	if !auth.ValidRole(role) {
		return auth.Account{}, fmt.Errorf("role %q: %w", role, auth.ErrInvalidInput)
	}

	existing, err := p.store.FindByUsername(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, auth.ErrNotFound) {
		return auth.Account{}, err
	}

	hash, err := p.hash(institutionalID)
	if err != nil {
		return auth.Account{}, fmt.Errorf("hash initial password: %w", err)
	}

	created, err := p.store.Create(ctx, auth.Account{
		AccountID:    institutionalID,
		Username:     email,
		PasswordHash: hash,
		Role:         role,
	})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, auth.ErrAlreadyExists) {
		// Lost the race against a concurrent provision; the winner's record
		// is the account.
		return p.store.FindByUsername(ctx, email)
	}
	return auth.Account{}, err
}
