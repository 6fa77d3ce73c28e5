// Package auth handles accounts, login sessions and the request identity.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/conorfennell/lingodeck/internal/domain"
	"github.com/conorfennell/lingodeck/internal/validate"
)

// Store persists users and sessions.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string, now time.Time) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	InsertSession(ctx context.Context, s domain.Session) error
	FindSession(ctx context.Context, token string) (*domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Credentials is a username and password pair submitted by a client.
type Credentials struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Service registers users and issues and resolves sessions.
type Service struct {
	store Store
	ttl   time.Duration
	cost  int
	log   *slog.Logger
	now   func() time.Time

	decoyOnce sync.Once
	decoy     []byte
}

// NewService returns a Service whose sessions last ttl.
func NewService(store Store, ttl time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store: store,
		ttl:   ttl,
		cost:  bcrypt.DefaultCost,
		log:   log,
		now:   time.Now,
	}
}

// Register creates a user. A taken username yields domain.ErrConflict.
func (s *Service) Register(ctx context.Context, c Credentials) (domain.Identity, error) {
	if err := validate.Struct(c); err != nil {
		return domain.Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.CreateUser(ctx, c.Username, string(hash), s.now())
	if err != nil {
		return domain.Identity{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", id, "username", c.Username)
	return domain.Identity{UserID: id, Username: c.Username}, nil
}

// Login checks the credentials and opens a session. Unknown users and
// wrong passwords both yield domain.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, c Credentials) (domain.Session, error) {
	if c.Username == "" || c.Password == "" {
		return domain.Session{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	user, err := s.store.FindUserByUsername(ctx, c.Username)
	if err != nil {
		return domain.Session{}, err
	}
	if user == nil {
		// Unknown usernames cost the same bcrypt comparison as known ones.
		_ = bcrypt.CompareHashAndPassword(s.decoyHash(), []byte(c.Password))
		return domain.Session{}, fmt.Errorf("%w: wrong username or password", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		return domain.Session{}, fmt.Errorf("%w: wrong username or password", domain.ErrUnauthorized)
	}

	now := s.now()
	if n, err := s.store.DeleteExpiredSessions(ctx, now); err != nil {
		s.log.WarnContext(ctx, "failed to prune expired sessions", "error", err)
	} else if n > 0 {
		s.log.DebugContext(ctx, "pruned expired sessions", "count", n)
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return domain.Session{}, fmt.Errorf("generate session token: %w", err)
	}
	session := domain.Session{
		Token:     token.String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.InsertSession(ctx, session); err != nil {
		return domain.Session{}, err
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return session, nil
}

// decoyHash returns a hash at the service's cost that matches no password.
func (s *Service) decoyHash() []byte {
	s.decoyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cost)
		if err != nil {
			s.log.Warn("failed to generate decoy password hash", "error", err)
			return
		}
		s.decoy = hash
	})
	return s.decoy
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to the identity that owns it.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	session, err := s.store.FindSession(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}
	if session == nil || !s.now().Before(session.ExpiresAt) {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	user, err := s.store.FindUserByID(ctx, session.UserID)
	if err != nil {
		return domain.Identity{}, err
	}
	if user == nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{UserID: user.ID, Username: user.Username}, nil
}
