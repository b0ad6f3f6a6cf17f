package auth

import (
	"context"
	"errors"
	"fmt"

	"controle-acesso/internal/access/db"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("access restricted to administrators")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type Service struct {
	Users   UserStore
	Tokens  *TokenIssuer
	Revoked Revocations // nil disables logout revocation
	Logger  *logger.Logger
}

func NewService(users UserStore, tokens *TokenIssuer, revoked Revocations, log *logger.Logger) *Service {
	return &Service{Users: users, Tokens: tokens, Revoked: revoked, Logger: log}
}

// Login checks the password and admin flag and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Claims, error) {
	user, err := s.Users.GetUserByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("unknown user %q", username))
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for %q", username))
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsAdmin {
		s.Logger.LogSecurity("LOGIN_REFUSED", fmt.Sprintf("%q is not an administrator", username))
		return "", nil, ErrNotAdmin
	}

	token, claims, err := s.Tokens.Issue(user.Username)
	if err != nil {
		return "", nil, err
	}
	s.Logger.LogAdmin("LOGIN", user.Username, "session started")
	return token, claims, nil
}

// Authenticate resolves a raw token to its admin user. The admin flag is read
// from the store on every call so revoking admin rights takes effect
// immediately.
func (s *Service) Authenticate(ctx context.Context, raw string) (*models.User, *Claims, error) {
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	if s.Revoked != nil {
		revoked, err := s.Revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, nil, ErrTokenRevoked
		}
	}

	user, err := s.Users.GetUserByUsername(ctx, claims.Subject)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsAdmin {
		return nil, nil, ErrNotAdmin
	}
	return user, claims, nil
}

// Logout revokes the token for the rest of its lifetime when revocation is
// configured.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims != nil {
		s.Logger.LogAdmin("LOGOUT", claims.Subject, "session ended")
	}
	if s.Revoked == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.Tokens.Now())
	return s.Revoked.Revoke(ctx, claims.ID, ttl)
}
