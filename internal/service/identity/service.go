// Package identity authenticates callers and resolves bearer tokens into the
// (user id, role) pair the cart, order and image services act on.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homegoods/internal/domain"
	"homegoods/internal/logging"
	tokenrepo "homegoods/internal/repository/token"
	userrepo "homegoods/internal/repository/user"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

const passwordMin = 8

type Service struct {
	users     userrepo.Repository
	tokens    *tokenManager
	accessTTL time.Duration
	logger    *zap.Logger
}

func New(users userrepo.Repository, tokens tokenrepo.Repository, accessTTL time.Duration, logger *zap.Logger) *Service {
	if accessTTL <= 0 {
		accessTTL = 48 * time.Hour
	}
	return &Service{
		users:     users,
		tokens:    newTokenManager(tokens),
		accessTTL: accessTTL,
		logger:    logging.OrNop(logger),
	}
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        *domain.User `json:"user"`
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, u domain.User, password string) (*domain.User, error) {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return nil, fmt.Errorf("%w: valid email required", domain.ErrInvalidArgument)
	}
	if len(password) < passwordMin {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidArgument, passwordMin)
	}
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = string(hashed)
	return s.users.Create(ctx, u)
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(ctx, u.ID, s.accessTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return &Session{
		AccessToken: token,
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		User:        u,
	}, nil
}

// Lookup resolves a bearer token into the caller identity.
func (s *Service) Lookup(ctx context.Context, token string) (domain.Identity, error) {
	userID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, ErrInvalidToken
		}
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: u.ID, Role: u.Role}, nil
}
