package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"auction-bidding/internal/biddingerrors"
	"auction-bidding/internal/models"
	"auction-bidding/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs a bearer token for an identity
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// AccountService handles signup, login and profile lookups
type AccountService struct {
	users  repository.UserStore
	tokens TokenIssuer
	cost   int
}

// NewAccountService creates a new AccountService instance
func NewAccountService(users repository.UserStore, tokens TokenIssuer) *AccountService {
	return &AccountService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
}

// Signup registers a user and returns a token for them
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return "", fmt.Errorf("account: %w - missing username or password", biddingerrors.ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("account: %w - malformed email", biddingerrors.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("account: hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return "", fmt.Errorf("account: failed to create user %s: %w", username, err)
	}

	return s.tokens.Issue(username)
}

// Login checks email and password and returns a fresh token
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, biddingerrors.ErrUserNotFound) {
		return "", fmt.Errorf("account: %w", biddingerrors.ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("account: failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("account: %w", biddingerrors.ErrInvalidCredentials)
	}

	return s.tokens.Issue(user.Username)
}

// Profile returns the public account details of username
func (s *AccountService) Profile(ctx context.Context, username string) (models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return models.User{}, fmt.Errorf("account: failed to load profile of %s: %w", username, err)
	}
	user.PasswordHash = ""
	return user, nil
}
