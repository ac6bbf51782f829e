// Package auth covers signup, login, and bearer-token identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/models"
	"github.com/cloudxplorer/StockDash/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

type Service struct {
	store          store.Store
	tokens         *TokenManager
	adminEmail     string
	adminPassword  string
	initialBalance decimal.Decimal
	logger         *zap.Logger
	now            func() time.Time
}

func New(st store.Store, tokens *TokenManager, adminEmail, adminPassword string, initialBalance decimal.Decimal, logger *zap.Logger) *Service {
	return &Service{
		store:          st,
		tokens:         tokens,
		adminEmail:     strings.ToLower(adminEmail),
		adminPassword:  adminPassword,
		initialBalance: initialBalance,
		logger:         logger,
		now:            time.Now,
	}
}

// Signup registers a user with a fresh account at the configured
// starting balance. Credentials matching the configured admin pair
// register as admin.
func (s *Service) Signup(ctx context.Context, name, email, password string) (models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || !strings.Contains(email, "@") || len(password) < 6 {
		return models.User{}, "", fmt.Errorf("%w: name, email and a password of at least 6 characters are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleUser
	if s.adminEmail != "" && email == s.adminEmail && password == s.adminPassword {
		role = domain.RoleAdmin
	}

	u := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	acct := models.Account{UserID: u.ID, Balance: s.initialBalance, Holdings: []models.Position{}}
	if err := s.store.CreateUser(ctx, u, acct); err != nil {
		return models.User{}, "", err
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return models.User{}, "", err
	}
	s.logger.Info("user signed up", zap.String("user_id", u.ID), zap.String("role", u.Role.String()))
	return u, token, nil
}

// Login verifies credentials and issues a token. Unknown email and bad
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return u, token, nil
}

// UserFromToken resolves a bearer token to its user.
func (s *Service) UserFromToken(ctx context.Context, token string) (models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return models.User{}, ErrInvalidToken
		}
		return models.User{}, err
	}
	return u, nil
}

// ListUsers returns all non-admin users.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx, domain.RoleUser)
}
