package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/xpanvictor/humidhub/pkg/Logger"
	"golang.org/x/crypto/bcrypt"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceExists       = errors.New("device already exists")
	ErrInvalidDevice      = errors.New("device id is required")
	ErrMissingCredentials = errors.New("username and password are required")
)

// UserService defines the interface for user business logic
type UserService interface {
	// Signup creates an account and returns its id
	Signup(ctx context.Context, req SignupRequest) (string, error)
	// Login verifies credentials and returns the account id. No token is issued.
	Login(ctx context.Context, req LoginRequest) (string, error)

	ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, error)
	GetUserByID(ctx context.Context, userID string) (*UserResponse, error)
}

type userService struct {
	repository UserRepository
	logger     *Logger.Logger
	hashCost   int
}

// Signup implements UserService
func (s *userService) Signup(ctx context.Context, req SignupRequest) (string, error) {
	if req.Username == "" || req.Password == "" {
		return "", ErrMissingCredentials
	}

	exists, err := s.repository.UsernameExists(ctx, req.Username)
	if err != nil {
		s.logger.Errorf("error checking username existence: %v", err)
		return "", fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return "", ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		s.logger.Errorf("error hashing password: %v", err)
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	u := NewUser(req.Username, string(hashedPassword))
	if err := s.repository.Create(ctx, u); err != nil {
		// lost a race against a concurrent signup
		if errors.Is(err, ErrUsernameTaken) {
			return "", ErrUsernameTaken
		}
		s.logger.Errorf("error creating user: %v", err)
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infof("user signed up: %s (%s)", u.ID, u.Username)
	return u.ID, nil
}

// Login implements UserService
func (s *userService) Login(ctx context.Context, req LoginRequest) (string, error) {
	if req.Username == "" || req.Password == "" {
		return "", ErrMissingCredentials
	}

	u, err := s.repository.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		s.logger.Errorf("error getting user by username: %v", err)
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	s.logger.Infof("user logged in: %s (%s)", u.ID, u.Username)
	return u.ID, nil
}

// ListUsers implements UserService
func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, error) {
	users, err := s.repository.List(ctx, offset, limit)
	if err != nil {
		s.logger.Errorf("error listing users: %v", err)
		return nil, err
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

// GetUserByID implements UserService
func (s *userService) GetUserByID(ctx context.Context, userID string) (*UserResponse, error) {
	u, err := s.repository.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := u.ToResponse()
	return &response, nil
}

// NewUserService creates a new user service
func NewUserService(repository UserRepository, logger *Logger.Logger) UserService {
	return NewUserServiceWithCost(repository, logger, bcrypt.DefaultCost)
}

// NewUserServiceWithCost is NewUserService with an explicit bcrypt cost.
func NewUserServiceWithCost(repository UserRepository, logger *Logger.Logger, cost int) UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		repository: repository,
		logger:     logger,
		hashCost:   cost,
	}
}
