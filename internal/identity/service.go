package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/actworks/control-tower/internal/domain"
)

// TokenPair carries a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Authenticator issues and validates access tokens and mints opaque
// refresh tokens. Refresh token storage and rotation stay in the service.
type Authenticator interface {
	GenerateAccessToken(user domain.User) (string, error)
	ValidateAccessToken(token string) (userID string, err error)
	NewRefreshToken() (string, error)
}

// Service implements the user directory and authentication flows.
type Service struct {
	repo       Repository
	auth       Authenticator
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator, refreshTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		auth:       auth,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Login authenticates by email and password. The application role is
// re-derived from the directory group on every login and persisted when it
// drifted, so group moves take effect at the next sign-in.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if role := RoleForGroup(user.Group); role != user.Role {
		user.Role = role
		user.UpdatedAt = s.now()
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("update role: %w", err)
		}
		slog.Info("role updated from group", "user_id", user.ID, "group", user.Group, "role", role)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// RefreshTokens rotates a refresh token, returning a new pair. The old
// token is invalidated even when issuance of the new pair fails.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("delete refresh token: %w", err)
	}

	if stored.IsExpired(s.now()) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return s.issueTokens(ctx, user)
}

// Logout invalidates a refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

// ValidateToken resolves an access token to its user. Implements the HTTP
// auth middleware contract.
func (s *Service) ValidateToken(ctx context.Context, token string) (domain.User, error) {
	userID, err := s.auth.ValidateAccessToken(token)
	if err != nil {
		return domain.User{}, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, ErrInvalidToken
	}
	return *user, nil
}

// CreateUserInput holds data for creating a directory user.
type CreateUserInput struct {
	Name       string
	Email      string
	Password   string
	Department string
	Group      string
}

// CreateUser adds a user to the directory. The role comes from the group
// mapping, never from the caller.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:         uuid.New().String(),
		Name:       input.Name,
		Email:      input.Email,
		Role:       RoleForGroup(input.Group),
		Department: input.Department,
		Group:      input.Group,
		Password:   string(hash),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// ImportResult summarizes a bulk user import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportUsers bulk-loads directory users. Rows with a taken email are
// skipped; other failures abort the import.
func (s *Service) ImportUsers(ctx context.Context, inputs []CreateUserInput) (*ImportResult, error) {
	result := &ImportResult{}
	for _, input := range inputs {
		if _, err := s.CreateUser(ctx, input); err != nil {
			if errors.Is(err, ErrEmailExists) {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: email already registered", input.Email))
				continue
			}
			return nil, fmt.Errorf("import %s: %w", input.Email, err)
		}
		result.Imported++
	}

	slog.Info("users imported", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers retrieves all directory users.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUserInput holds mutable directory fields.
type UpdateUserInput struct {
	Name       string
	Department string
	Group      string
}

// UpdateUser updates directory fields of a user. A group change remaps the
// role immediately.
func (s *Service) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = input.Name
	user.Department = input.Department
	user.Group = input.Group
	user.Role = RoleForGroup(input.Group)
	user.UpdatedAt = s.now()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user and revokes their refresh tokens.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.DeleteUserRefreshTokens(ctx, id); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return s.repo.DeleteUser(ctx, id)
}

// EnsureAdmin creates the bootstrap admin account when it does not exist
// yet. Runs at startup so a fresh deployment is immediately usable.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	_, err = s.CreateUser(ctx, CreateUserInput{
		Name:       "Administrator",
		Email:      email,
		Password:   password,
		Department: "Operations",
		Group:      "GRP_Warehouse_Admin",
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	slog.Info("bootstrap admin created", "email", email)
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.auth.GenerateAccessToken(*user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.auth.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	if err := s.repo.SaveRefreshToken(ctx, &domain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
