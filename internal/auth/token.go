package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind tells access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// MaxTokenLifetime caps configured token lifetimes.
const MaxTokenLifetime = 30 * 24 * time.Hour

var (
	// ErrSignature means the token was tampered with, corrupted, or signed with another key or algorithm.
	ErrSignature = errors.New("auth: token signature invalid")
	// ErrExpired means the token's expiry has been reached.
	ErrExpired = errors.New("auth: token expired")
	// ErrMalformed means the token does not decode or lacks a required claim.
	ErrMalformed = errors.New("auth: token malformed")
	// ErrKindMismatch means the token was issued for another kind.
	ErrKindMismatch = errors.New("auth: token kind mismatch")
)

const (
	claimSubject   = "sub"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimKind      = "type"
	claimID        = "jti"
)

// TokenClaims is the verified content of a token. Extra holds every claim
// other than the four registered ones.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Kind      TokenKind
	Extra     map[string]any
}

// IssuedToken is handed to the caller and never stored.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expire_at"`
	Subject   string    `json:"sub"`
}

// Codec signs and verifies HS256 tokens of a single kind.
type Codec struct {
	kind     TokenKind
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec builds a codec. The lifetime must be positive and at most MaxTokenLifetime.
func NewCodec(kind TokenKind, secret string, lifetime time.Duration, opts ...CodecOption) (*Codec, error) {
	if kind != KindAccess && kind != KindRefresh {
		return nil, fmt.Errorf("auth: unknown token kind %q", kind)
	}
	if secret == "" {
		return nil, errors.New("auth: signing secret is empty")
	}
	if lifetime <= 0 || lifetime > MaxTokenLifetime {
		return nil, fmt.Errorf("auth: %s token lifetime %s outside (0, %s]", kind, lifetime, MaxTokenLifetime)
	}
	c := &Codec{kind: kind, secret: []byte(secret), lifetime: lifetime, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Kind returns the kind the codec issues and accepts.
func (c *Codec) Kind() TokenKind {
	return c.kind
}

// Lifetime returns the validity window of issued tokens.
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue signs a token for subject.
func (c *Codec) Issue(subject string) (IssuedToken, error) {
	return c.IssueWithClaims(subject, nil)
}

// IssueWithClaims signs a token for subject carrying additional claims.
// Registered claims in extra are overwritten.
func (c *Codec) IssueWithClaims(subject string, extra map[string]any) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, fmt.Errorf("%w: empty subject", ErrMalformed)
	}

	now := c.now().Truncate(jwt.TimePrecision)
	expiresAt := now.Add(c.lifetime)

	claims := jwt.MapClaims{claimID: uuid.NewString()}
	for name, value := range extra {
		claims[name] = value
	}
	claims[claimSubject] = subject
	claims[claimIssuedAt] = jwt.NewNumericDate(now)
	claims[claimExpiresAt] = jwt.NewNumericDate(expiresAt)
	claims[claimKind] = string(c.kind)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign %s token: %w", c.kind, err)
	}
	return IssuedToken{Token: signed, ExpiresAt: expiresAt, Subject: subject}, nil
}

// Verify checks signature, expiry, required claims and kind, in that order.
func (c *Codec) Verify(raw string) (*TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err := checkSignatureSegment(parser, raw); err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, claimSubject)
	}
	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, claimIssuedAt)
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, claimExpiresAt)
	}
	kind, ok := claims[claimKind].(string)
	if !ok || kind == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, claimKind)
	}
	if TokenKind(kind) != c.kind {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrKindMismatch, kind, c.kind)
	}

	extra := make(map[string]any, len(claims))
	for name, value := range claims {
		switch name {
		case claimSubject, claimIssuedAt, claimExpiresAt, claimKind:
			continue
		}
		extra[name] = value
	}

	return &TokenClaims{
		Subject:   subject,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
		Kind:      TokenKind(kind),
		Extra:     extra,
	}, nil
}

// checkSignatureSegment reports a signature that no longer decodes as a
// signature failure. Everything after the second dot is the signature.
func checkSignatureSegment(parser *jwt.Parser, raw string) error {
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 {
		return nil
	}
	if _, err := parser.DecodeSegment(parts[0]); err != nil {
		return nil
	}
	if _, err := parser.DecodeSegment(parts[1]); err != nil {
		return nil
	}
	if _, err := parser.DecodeSegment(parts[2]); err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}

// Codecs holds the access and refresh codecs, which share one secret.
type Codecs struct {
	Access  *Codec
	Refresh *Codec
}

// NewCodecs builds both codecs from one secret.
func NewCodecs(secret string, accessLifetime, refreshLifetime time.Duration, opts ...CodecOption) (*Codecs, error) {
	access, err := NewCodec(KindAccess, secret, accessLifetime, opts...)
	if err != nil {
		return nil, err
	}
	refresh, err := NewCodec(KindRefresh, secret, refreshLifetime, opts...)
	if err != nil {
		return nil, err
	}
	return &Codecs{Access: access, Refresh: refresh}, nil
}
