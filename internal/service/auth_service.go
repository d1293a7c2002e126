package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"linkwise/internal/domain"
	"linkwise/internal/storage"
	"linkwise/internal/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", domain.MinPasswordLength)
	ErrMissingCredentials = errors.New("email and password are required")
)

// Session is what sign-in and sign-up hand back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService is the identity provider: email/password accounts with bearer tokens.
type AuthService struct {
	users  storage.UserRepository
	tokens *token.Manager
	log    logrus.FieldLogger
}

func NewAuthService(users storage.UserRepository, tokens *token.Manager, logger logrus.FieldLogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: logger.WithField("component", "auth_service")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}
	if len(password) < domain.MinPasswordLength {
		return Session{}, ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return Session{}, ErrEmailInUse
		}
		return Session{}, err
	}
	s.log.WithField("user_id", user.ID).Info("User signed up")
	return s.issue(user)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("user_id", user.ID).Info("Sign-in with wrong password")
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

// SignOut revokes the presented token.
func (s *AuthService) SignOut(claims *token.Claims) {
	s.tokens.Revoke(claims)
	if claims != nil {
		s.log.WithField("user_id", claims.UserID).Info("User signed out")
	}
}

// Verify resolves a bearer token to its claims.
func (s *AuthService) Verify(bearer string) (*token.Claims, error) {
	return s.tokens.Parse(bearer)
}

func (s *AuthService) issue(user domain.User) (Session, error) {
	signed, expires, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: signed, ExpiresAt: expires, User: user}, nil
}
