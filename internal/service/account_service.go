package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/article-service/internal/auth"
	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/events"
	"github.com/spec-kit/article-service/internal/mail"
	"github.com/spec-kit/article-service/internal/store"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrCodeAlreadySent = errors.New("verification code already sent")
	ErrAccountNotFound = errors.New("account not found")
	ErrAlreadyVerified = errors.New("account already verified")
	ErrCodeNotFound    = errors.New("verification code not found")
	ErrBadCredentials  = errors.New("bad credentials")
	ErrNotVerified     = errors.New("account not verified")
)

// CodeCache keeps pending verification codes keyed by email.
type CodeCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// AccountStore is the slice of the user repository the account flows need.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Signup(ctx context.Context, email, passwordHash string) (*domain.User, error)
	SetVerified(ctx context.Context, email string) error
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// LoginResult is handed back on a successful login.
type LoginResult struct {
	User        *domain.User
	AccessToken auth.IssuedToken
}

// AccountService coordinates signup, email verification and login.
type AccountService struct {
	codes      CodeCache
	mailer     mail.Sender
	hasher     PasswordHasher
	codecs     *auth.Codecs
	dispatcher events.Dispatcher
	codeTTL    int
	logger     *zap.Logger
}

// AccountDependencies encapsulates collaborators for the account service.
type AccountDependencies struct {
	Codes      CodeCache
	Mailer     mail.Sender
	Hasher     PasswordHasher
	Codecs     *auth.Codecs
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAccountService builds the service. codeTTLSeconds bounds how long a
// sent code stays valid and how long a new signup is refused.
func NewAccountService(deps AccountDependencies, codeTTLSeconds int) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if codeTTLSeconds <= 0 {
		codeTTLSeconds = 60
	}
	return &AccountService{
		codes:      deps.Codes,
		mailer:     deps.Mailer,
		hasher:     deps.Hasher,
		codecs:     deps.Codecs,
		dispatcher: deps.Dispatcher,
		codeTTL:    codeTTLSeconds,
		logger:     logger,
	}
}

// Signup sends a verification code and stores the account unverified. An
// unverified account left from an earlier attempt is reused as is.
func (s *AccountService) Signup(ctx context.Context, users AccountStore, email, password string) error {
	email = normalizeEmail(email)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return ErrAccountExists
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}

	_, pending, err := s.codes.Get(ctx, email)
	if err != nil {
		return err
	}
	if pending {
		return ErrCodeAlreadySent
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	code, err := s.mailer.SendCode(ctx, email)
	if err != nil {
		return err
	}
	if err := s.codes.Set(ctx, email, code, s.codeTTL); err != nil {
		return err
	}

	user, err := users.Signup(ctx, email, hash)
	if err != nil {
		return err
	}

	s.publish(ctx, events.NewEvent(events.EventCodeSent, user.ID, email, events.CodeSentPayload{TTLSeconds: s.codeTTL}))
	return nil
}

// Verify checks code against the pending one and marks the account verified.
func (s *AccountService) Verify(ctx context.Context, users AccountStore, email, code string) error {
	email = normalizeEmail(email)

	user, err := users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	pending, ok, err := s.codes.Get(ctx, email)
	if err != nil {
		return err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(pending), []byte(code)) != 1 {
		return ErrCodeNotFound
	}

	if err := users.SetVerified(ctx, email); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, email); err != nil {
		s.logger.Warn("verification code not removed", zap.String("email", email), zap.Error(err))
	}

	s.publish(ctx, events.NewEvent(events.EventVerified, user.ID, email, nil))
	return nil
}

// Login checks the password and issues an access token for a verified account.
func (s *AccountService) Login(ctx context.Context, users AccountStore, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	user, err := users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	token, err := s.codecs.Access.Issue(strconv.FormatInt(user.ID, 10))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventLoggedIn, user.ID, email, events.LoggedInPayload{ExpiresAt: token.ExpiresAt}))
	return &LoginResult{User: user, AccessToken: token}, nil
}

func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
