package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/thought-journal/internal/apperror"
	"github.com/sakif/thought-journal/internal/auth"
	"github.com/sakif/thought-journal/internal/model"
	"github.com/sakif/thought-journal/internal/repository"
)

// AuthService orchestrates sign-in: GitHub OAuth on one path, local
// login/password on the other. Both end the same way — a user row and a
// session JWT for the cookie.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the authenticated user with the issued session token
// so the handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub handles the OAuth callback: upsert the user keyed
// by GitHub id (insert on first login, refresh profile fields after), then
// issue a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return s.issue(user)
}

// Register creates a local account and signs it in. Login and password are
// required; email is optional display identity.
func (s *AuthService) Register(ctx context.Context, login, email, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperror.ValidationFailed("login", "login is required")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Login:        login,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.String("login", login))

	return s.issue(user)
}

// Login verifies a local account's password and signs it in. Unknown login
// and wrong password produce the same Unauthenticated answer so the
// endpoint doesn't confirm which logins exist.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, apperror.Unauthenticated("invalid login or password")
	}
	if user.PasswordHash == "" {
		// OAuth-only account; it has no password to check.
		return nil, apperror.Unauthenticated("invalid login or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("invalid login or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID), slog.String("login", user.Login))

	return s.issue(user)
}

// GetUserByID returns the user for /api/me after the middleware has
// validated the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
