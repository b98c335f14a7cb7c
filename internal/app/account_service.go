package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"psych-assessment-service/internal/auth"
	"psych-assessment-service/internal/domain"
)

// ProfileStore persists the profile written at sign-up. CreateProfile returns
// domain.ErrEmailTaken for a duplicate email; lookups and deletes of unknown
// users return domain.ErrProfileNotFound.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile domain.Profile) error
	ProfileByEmail(ctx context.Context, email string) (domain.Profile, error)
	DeleteProfile(ctx context.Context, uid string) error
}

// UserDataEraser removes everything stored for a user besides the profile.
type UserDataEraser interface {
	DeleteUserData(ctx context.Context, user domain.User) (int, error)
}

// SignUpRequest is what a new account provides. Age and gender are mandatory.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Age      int    `json:"age" validate:"required,min=1,max=120"`
	Gender   string `json:"gender" validate:"required,oneof=Masculino Feminino Outro"`
}

// AccountService handles sign-up, login and account deletion.
type AccountService struct {
	profiles ProfileStore
	eraser   UserDataEraser
	hasher   auth.PasswordHasher
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewAccountService(profiles ProfileStore, eraser UserDataEraser, hasher auth.PasswordHasher, logger *zap.Logger) *AccountService {
	return &AccountService{
		profiles: profiles,
		eraser:   eraser,
		hasher:   hasher,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// SignUp creates a profile and returns the new identity. The demo email is
// reserved.
func (s *AccountService) SignUp(ctx context.Context, req SignUpRequest) (domain.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrInvalidProfile, err)
	}
	if auth.IsDemoEmail(req.Email) {
		return domain.User{}, domain.ErrDemoAccount
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	profile := domain.Profile{
		UID:          s.newID(),
		Email:        req.Email,
		Age:          req.Age,
		Gender:       req.Gender,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("account created", zap.String("user_id", profile.UID))
	return profile.User(), nil
}

// Login checks email and password. The demo email signs in as the demo
// account whatever the password.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, error) {
	if auth.IsDemoEmail(email) {
		return auth.DemoUser(), nil
	}
	profile, err := s.profiles.ProfileByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if !s.hasher.Matches(profile.PasswordHash, password) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return profile.User(), nil
}

// DeleteAccount erases the user's records and then the profile. Records go
// first so a failed profile delete can simply be retried.
func (s *AccountService) DeleteAccount(ctx context.Context, user domain.User) (int, error) {
	n, err := s.eraser.DeleteUserData(ctx, user)
	if err != nil {
		return 0, err
	}
	if err := s.profiles.DeleteProfile(ctx, user.UID); err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return n, err
	}
	s.logger.Info("account deleted", zap.String("user_id", user.UID), zap.Int("records", n))
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
