package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"todo-be/internal/jwt"
	"todo-be/internal/models"
	"todo-be/internal/repository"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
	log        *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtService *jwt.JWTService, log *slog.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		log:        log,
	}
}

// dummyHash is compared against when the email is unknown so that both
// login failure paths pay for one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// Register creates a new user account and logs it in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	const op = "service.Register"

	log := s.log.With(slog.String("op", op))

	// Check if user already exists
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to look up email", slog.Any("error", err))
		return nil, ErrInternal
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return nil, ErrInternal
	}

	// Create user; the unique constraint settles a concurrent registration
	user, err := s.userRepo.Create(ctx, req.Name, req.Email, string(hashedPassword))
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrConflict
	}
	if err != nil {
		log.Error("failed to create user", slog.Any("error", err))
		return nil, ErrInternal
	}

	// Generate JWT token for automatic login after registration
	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Error("failed to generate token", slog.Any("error", err))
		return nil, ErrInternal
	}

	log.Info("user registered", slog.String("user_id", user.ID))

	return &models.RegisterResponse{
		Message: "User registered successfully",
		Token:   token,
		UserID:  user.ID,
	}, nil
}

// Login authenticates a user and returns a fresh JWT token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	const op = "service.Login"

	log := s.log.With(slog.String("op", op))

	// Find user by email
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		return nil, ErrUnauthorized
	}
	if err != nil {
		log.Error("failed to look up user", slog.Any("error", err))
		return nil, ErrInternal
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Debug("password mismatch", slog.String("user_id", user.ID))
		return nil, ErrUnauthorized
	}

	// Generate JWT token
	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Error("failed to generate token", slog.Any("error", err))
		return nil, ErrInternal
	}

	return &models.AuthResponse{
		Token:  token,
		UserID: user.ID,
	}, nil
}
