package utils // package utils provides helper functions for hashing and token handling

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Typed verification failures. The HTTP layer collapses all of them into a
// single generic response, but the distinction is kept for logging and for
// tests.
var (
	// ErrTokenMalformed means the string is not a parseable signed token.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired means the signature checked out but the expiry claim
	// is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenSignature means the signature does not verify against the
	// configured public key.
	ErrTokenSignature = errors.New("token signature invalid")
)

// TokenClaims is the claim set carried by every token this service signs.
// Subject (sub) holds the username handle. NewEmail is only present on
// email-change tokens and carries the address waiting for confirmation.
type TokenClaims struct {
	jwt.RegisteredClaims
	NewEmail string `json:"new_email,omitempty"`
}

// Username returns the subject handle asserted by the claims.
func (c TokenClaims) Username() string { return c.Subject }

// SignedToken pairs the serialized token with its expiry so callers can
// report both to the client.
type SignedToken struct {
	Token string    // the compact serialized JWT
	Exp   time.Time // UTC expiration time
}

// NewAuthToken builds and signs an RS256 bearer token asserting username.
// Auth tokens carry an expiry: issuing unbounded credentials at login is a
// liability the service does not accept.
func NewAuthToken(key *rsa.PrivateKey, username string, ttl time.Duration) (SignedToken, error) {
	return sign(key, TokenClaims{RegisteredClaims: registered(username, ttl)})
}

// NewConfirmToken issues a time-bound token used to confirm an account.
// It carries only the subject handle.
func NewConfirmToken(key *rsa.PrivateKey, username string, ttl time.Duration) (SignedToken, error) {
	return sign(key, TokenClaims{RegisteredClaims: registered(username, ttl)})
}

// NewEmailChangeToken issues a time-bound token that binds username to the
// email address awaiting confirmation. Applying the change requires the
// token to verify and its subject to match the acting user.
func NewEmailChangeToken(key *rsa.PrivateKey, username, newEmail string, ttl time.Duration) (SignedToken, error) {
	return sign(key, TokenClaims{RegisteredClaims: registered(username, ttl), NewEmail: newEmail})
}

// VerifyToken checks the signature against pub and the expiry claim against
// the current time, returning the embedded claims on success. Failures are
// reported as one of the typed errors above; library internals never leak.
func VerifyToken(pub *rsa.PublicKey, raw string) (TokenClaims, error) {
	claims := TokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject any token not signed with the RSA family; accepting
		// attacker-chosen algorithms would defeat the asymmetric scheme.
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrTokenSignature
		}
		return pub, nil
	})
	switch {
	case err == nil && tok.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenClaims{}, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return TokenClaims{}, ErrTokenSignature
	default:
		return TokenClaims{}, ErrTokenMalformed
	}
}

func registered(username string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(key *rsa.PrivateKey, claims TokenClaims) (SignedToken, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := t.SignedString(key)
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: claims.ExpiresAt.Time}, nil
}
