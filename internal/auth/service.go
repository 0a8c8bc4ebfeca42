package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service is the authentication gateway: credential verification and token
// issuance over an AccountStore. No session state is persisted.
type Service struct {
	store  AccountStore
	signer *TokenSigner
}

// LoginResult is returned on successful authentication. The password hash is
// never part of it.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Profile   `json:"user"`
}

// NewService constructs the gateway from its collaborators.
func NewService(store AccountStore, signer *TokenSigner) *Service {
	return &Service{store: store, signer: signer}
}

// Login verifies the credentials and issues a signed token. Both the
// unknown-account and bad-password branches collapse into
// ErrInvalidCredentials so responses cannot be used for username
// enumeration.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, expiresAt, err := s.signer.Issue(account.AccountID, account.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: account.Profile()}, nil
}

// Authenticate verifies a bearer token and returns its claims.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.signer.Verify(token)
}

// AuthorizeOwnData enforces ownership scoping for score queries: staff roles
// pass unconditionally; a student may only reference their own studentId. An
// empty requestedStudentID is allowed (callers scope the query downstream).
func AuthorizeOwnData(claims *Claims, requestedStudentID string) error {
	if claims == nil {
		return ErrInvalidToken
	}
	if StaffRole(claims.Role) {
		return nil
	}
	if requestedStudentID != "" && requestedStudentID != claims.AccountID() {
		return ErrForbidden
	}
	return nil
}
