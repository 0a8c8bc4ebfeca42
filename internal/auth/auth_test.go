package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func newTestService(t *testing.T, opts ...SignerOption) (*Service, *InMemoryStore) {
	t.Helper()
	signer, err := NewTokenSigner(testSecret, "gradebook-test", opts...)
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	store := NewInMemoryStore()
	return NewService(store, signer), store
}

func seedAccount(t *testing.T, store *InMemoryStore, accountID, email, password, role string) Account {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	a, err := store.Create(context.Background(), Account{
		AccountID:    accountID,
		Username:     email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func TestLoginRoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	seedAccount(t, store, "SV001", "alice@example.edu", "s3cret", RoleStudent)

	res, err := svc.Login(context.Background(), "alice@example.edu", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected a token")
	}
	if res.User.AccountID != "SV001" || res.User.Role != RoleStudent || res.User.Username != "alice@example.edu" {
		t.Fatalf("unexpected profile: %+v", res.User)
	}

	claims, err := svc.Authenticate(res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.AccountID() != "SV001" || claims.Role != RoleStudent {
		t.Fatalf("claims do not match account: %+v", claims)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, store := newTestService(t)
	seedAccount(t, store, "SV001", "alice@example.edu", "s3cret", RoleStudent)

	_, errUnknown := svc.Login(context.Background(), "nobody@example.edu", "s3cret")
	_, errBadPass := svc.Login(context.Background(), "alice@example.edu", "wrong")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("unknown account: got %v", errUnknown)
	}
	if !errors.Is(errBadPass, ErrInvalidCredentials) {
		t.Fatalf("bad password: got %v", errBadPass)
	}
	if errUnknown.Error() != errBadPass.Error() {
		t.Fatalf("failure branches leak: %q vs %q", errUnknown, errBadPass)
	}
}

func TestAuthenticateRejectsTamperedToken(t *testing.T) {
	svc, store := newTestService(t)
	seedAccount(t, store, "SV001", "alice@example.edu", "s3cret", RoleStudent)

	res, err := svc.Login(context.Background(), "alice@example.edu", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	parts := strings.Split(res.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("x", len(parts[2]))
	if _, err := svc.Authenticate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token accepted: %v", err)
	}

	otherSigner, err := NewTokenSigner("a-different-secret", "gradebook-test")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	forged, _, err := otherSigner.Issue("SV001", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Authenticate(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token signed with wrong secret accepted: %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, WithSignerClock(func() time.Time { return current }))
	seedAccount(t, store, "SV001", "alice@example.edu", "s3cret", RoleStudent)

	res, err := svc.Login(context.Background(), "alice@example.edu", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got, want := res.ExpiresAt, current.Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("expiry: got %v, want %v", got, want)
	}

	current = current.Add(25 * time.Hour)
	if _, err := svc.Authenticate(res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestAuthorizeOwnData(t *testing.T) {
	student := &Claims{Role: RoleStudent}
	student.Subject = "SV001"
	teacher := &Claims{Role: RoleTeacher}
	teacher.Subject = "GV001"
	admin := &Claims{Role: RoleAdmin}
	admin.Subject = "AD001"

	cases := []struct {
		name      string
		claims    *Claims
		requested string
		wantErr   error
	}{
		{"student own records", student, "SV001", nil},
		{"student no filter", student, "", nil},
		{"student other records", student, "SV002", ErrForbidden},
		{"teacher any records", teacher, "SV002", nil},
		{"admin any records", admin, "SV002", nil},
		{"missing claims", nil, "SV001", ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeOwnData(tc.claims, tc.requested)
			if !errors.Is(err, tc.wantErr) && !(err == nil && tc.wantErr == nil) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSignerRequiresSecret(t *testing.T) {
	if _, err := NewTokenSigner("  ", "gradebook"); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestStoreUniqueness(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	seedAccount(t, store, "SV001", "alice@example.edu", "pw", RoleStudent)

	if _, err := store.Create(ctx, Account{
		AccountID: "SV001", Username: "other@example.edu", PasswordHash: "h", Role: RoleStudent,
	}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate accountId: got %v", err)
	}
	if _, err := store.Create(ctx, Account{
		AccountID: "SV002", Username: "alice@example.edu", PasswordHash: "h", Role: RoleStudent,
	}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate username: got %v", err)
	}
	if _, err := store.Create(ctx, Account{
		AccountID: "SV003", Username: "carol@example.edu", PasswordHash: "h", Role: "superuser",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("invalid role: got %v", err)
	}
}
