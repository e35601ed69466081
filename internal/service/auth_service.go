package service

import (
	"context"
	"errors"
	"time"

	"recruitdesk/internal/auth"
	"recruitdesk/internal/authz"
	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *auth.TokenManager
	log      *zap.Logger
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenManager, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: repository.NewUserRepository(db),
		tokens:   tokens,
		log:      log,
	}
}

type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *model.User `json:"user"`
}

// Login verifies credentials and issues a token pair. Unknown email and wrong
// password come back as the same error so the response leaks nothing.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, refresh, expiresAt, err := s.tokens.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", user.Role))

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	access, refresh, expiresAt, err := s.tokens.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

type CreateUserRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

// CreateUser registers a back-office operator. Only user-admin capable roles
// reach this through the router; the role value itself is validated here.
func (s *AuthService) CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	if !authz.ValidRole(authz.Role(req.Role)) {
		return nil, errors.New("unknown role: " + req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Phone:        req.Phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, role string, page, pageSize int) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, role, page, pageSize)
}

// DeactivateUser soft deletes the account; issued tokens expire on their own.
func (s *AuthService) DeactivateUser(ctx context.Context, id int64) error {
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deactivated", zap.Int64("user_id", id))
	return nil
}
