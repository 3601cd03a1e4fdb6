package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/auth"
	"postcode-tracker/internal/ports"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
)

type AccountService struct {
	users         ports.UserRepository
	secretKey     string
	expireMinutes int
	now           func() time.Time
}

func NewAccountService(users ports.UserRepository, secretKey string, expireMinutes int) *AccountService {
	return &AccountService{
		users:         users,
		secretKey:     secretKey,
		expireMinutes: expireMinutes,
		now:           time.Now,
	}
}

func (s *AccountService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if n := len(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", domain.ErrValidation, minUsernameLength, maxUsernameLength)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, auth.MaxPasswordBytes)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	u := &domain.User{Username: username, PasswordHash: hash, CreatedAt: s.now().UTC()}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Login checks the credentials and issues an access token. Unknown users and
// wrong passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrBadCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return "", nil, domain.ErrBadCredentials
	}

	token, err := auth.GenerateAccessToken(u.ID, s.secretKey, s.expireMinutes)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}
	return token, u, nil
}

// Authenticate maps a bearer token to the user id it was issued for.
func (s *AccountService) Authenticate(token string) (int64, error) {
	claims, err := auth.ValidateAccessToken(token, s.secretKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrBadCredentials, err)
	}
	return claims.UserID, nil
}

func (s *AccountService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetUser(ctx, userID)
}
