package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/auth"
	"github.com/converse-chat/converse/internal/domain"
	"github.com/converse-chat/converse/internal/repository"
)

type UserService struct {
	users repository.UserRepository
	log   *zap.SugaredLogger
}

func NewUserService(users repository.UserRepository, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, log: log}
}

// Register creates a credentials user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if name == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: name, email and a password of at least 8 characters are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		HashedPassword: hashed,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies email/password credentials. OAuth-only users cannot log in
// with a password.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.HashedPassword == "" || !auth.CheckPassword(u.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// OAuthLogin finds or creates the user for an exchanged provider profile and
// records the provider link.
func (s *UserService) OAuthLogin(ctx context.Context, p *auth.Profile) (*domain.User, error) {
	if p.Email == "" {
		return nil, fmt.Errorf("%w: provider returned no email", ErrInvalidInput)
	}
	acc := domain.Account{
		Provider:          p.Provider,
		ProviderAccountID: p.ProviderAccountID,
		AccessToken:       p.AccessToken,
		RefreshToken:      p.RefreshToken,
	}

	u, err := s.users.GetByEmail(ctx, p.Email)
	if errors.Is(err, repository.ErrNotFound) {
		u = &domain.User{
			ID:       uuid.NewString(),
			Name:     p.Name,
			Email:    p.Email,
			Image:    p.Image,
			Accounts: []domain.Account{acc},
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}

	if !hasAccount(u, p.Provider, p.ProviderAccountID) {
		if err := s.users.LinkAccount(ctx, u.ID, acc); err != nil {
			s.log.Warnw("link oauth account", "user", u.ID, "provider", p.Provider, "err", err)
		}
	}
	return u, nil
}

// List returns every user except the caller, newest first.
func (s *UserService) List(ctx context.Context, callerID string) ([]*domain.User, error) {
	return s.users.List(ctx, callerID)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// UpdateSettings changes the caller's display name and/or avatar URL.
func (s *UserService) UpdateSettings(ctx context.Context, id, name, image string) (*domain.User, error) {
	if name == "" && image == "" {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := s.users.UpdateProfile(ctx, id, name, image); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func hasAccount(u *domain.User, provider, providerAccountID string) bool {
	for _, a := range u.Accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			return true
		}
	}
	return false
}
