package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity payload embedded in a signed token. The account's
// business key travels as the registered subject.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AccountID returns the account business key the token was issued for.
func (c *Claims) AccountID() string { return c.Subject }

// TokenSigner issues and verifies HS256 tokens with a single
// externally-configured secret.
type TokenSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// SignerOption configures TokenSigner behavior.
type SignerOption func(*TokenSigner)

// WithTokenTTL overrides the default 24h token lifetime.
func WithTokenTTL(ttl time.Duration) SignerOption {
	return func(s *TokenSigner) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSignerClock overrides the time source (useful for tests).
func WithSignerClock(fn func() time.Time) SignerOption {
	return func(s *TokenSigner) {
		if fn != nil {
			s.now = fn
		}
	}
}

const defaultTokenTTL = 24 * time.Hour

// NewTokenSigner constructs a signer. The secret must come from
// configuration; there is no fallback.
func NewTokenSigner(secret, issuer string, opts ...SignerOption) (*TokenSigner, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	s := &TokenSigner{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token carrying the account's identity and role.
func (s *TokenSigner) Issue(accountID, role string) (token string, expiresAt time.Time, err error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", time.Time{}, errors.New("accountID is required")
	}
	if !ValidRole(role) {
		return "", time.Time{}, errors.New("unknown role")
	}

	now := s.now().UTC()
	expiresAt = now.Add(s.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and issuer, and returns the claims.
// Pure computation, no I/O.
func (s *TokenSigner) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || !ValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
