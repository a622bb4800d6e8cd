package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xraph/subchain/id"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("api: missing bearer token")

	// ErrInvalidToken is returned when a bearer token fails verification or
	// its subject is not an account ID.
	ErrInvalidToken = errors.New("api: invalid bearer token")
)

type ctxKey struct{}

// Signer issues and verifies HS256 tokens whose subject is the caller's
// account ID. The token signature stands in for the transaction signature:
// a request acts for exactly the account named by its sub claim.
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewSigner creates a Signer for secret. issuer is stamped into issued
// tokens and, when non-empty, required on verified ones.
func NewSigner(secret []byte, issuer string) *Signer {
	return &Signer{secret: secret, issuer: issuer, now: time.Now}
}

// Sign issues a token for caller valid for ttl. A zero ttl issues a token
// without an expiry.
func (s *Signer) Sign(caller id.AccountID, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  caller.String(),
		Issuer:   s.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a token and returns the caller it names.
func (s *Signer) Verify(raw string) (id.AccountID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return id.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	caller, err := id.ParseAccountID(claims.Subject)
	if err != nil {
		return id.Nil, fmt.Errorf("%w: subject: %w", ErrInvalidToken, err)
	}
	return caller, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// verified caller in the request context.
func Authenticate(s *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			caller, err := s.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a context carrying caller.
func WithCaller(ctx context.Context, caller id.AccountID) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller)
}

// CallerFrom returns the authenticated caller, or id.Nil.
func CallerFrom(ctx context.Context) id.AccountID {
	caller, _ := ctx.Value(ctxKey{}).(id.AccountID)
	return caller
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
