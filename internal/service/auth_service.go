package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/internal/repository"
	"github.com/diagnosis/visitor-register/internal/utils"
	"github.com/diagnosis/visitor-register/pkg/auth"
	"github.com/diagnosis/visitor-register/pkg/config"
	"github.com/diagnosis/visitor-register/pkg/logger"
)

type AuthService interface {
	SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.Credential, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Me(ctx context.Context) (*domain.User, error)
}

type authService struct {
	credRepo repository.CredentialRepository
	userRepo repository.UserRepository
	identity Identity
	config   config.AuthConfig
	params   *argon2id.Params

	// unknown e-mails are checked against this so both failures cost the same
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	credRepo repository.CredentialRepository,
	userRepo repository.UserRepository,
	identity Identity,
	cfg config.AuthConfig,
) AuthService {
	return &authService{
		credRepo: credRepo,
		userRepo: userRepo,
		identity: identity,
		config:   cfg,
		params:   argon2id.DefaultParams,
	}
}

func (s *authService) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.Credential, error) {
	req.Normalize()

	var violations []domain.Violation
	if !utils.IsValidEmail(req.Email) {
		violations = append(violations, domain.Violation{Field: "email", Message: "invalid email format"})
	}
	if len([]rune(req.Password)) < s.config.MinPasswordChars {
		violations = append(violations, domain.Violation{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", s.config.MinPasswordChars),
		})
	}
	if len(violations) > 0 {
		return nil, domain.NewValidationError(violations...)
	}

	existing, err := s.credRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, &domain.StoreError{Op: "credentials.find", Err: err}
	}
	if existing != nil {
		return nil, &domain.ConflictError{Resource: "credential", Message: "email already registered"}
	}

	hash, err := argon2id.CreateHash(req.Password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred, err := s.credRepo.Create(ctx, &domain.Credential{
		Subject:      uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, &domain.ConflictError{Resource: "credential", Message: "email already registered"}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "credentials.create", Err: err}
	}

	logger.InfoContext(ctx, "Credential created", "subject", cred.Subject)
	return cred, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, domain.NewValidationError(domain.Violation{Field: "email", Message: "email and password are required"})
	}

	cred, err := s.credRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, &domain.StoreError{Op: "credentials.find", Err: err}
	}
	if cred == nil {
		s.dummyOnce.Do(func() {
			s.dummyHash, _ = argon2id.CreateHash(uuid.NewString(), s.params)
		})
		if s.dummyHash != "" {
			_, _ = argon2id.ComparePasswordAndHash(req.Password, s.dummyHash)
		}
		logger.InfoContext(ctx, "Login for unknown e-mail")
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(cred.Subject, cred.Email, auth.RoleHost, s.config.JWTSecret, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenTTL / time.Second),
	}, nil
}

func (s *authService) Me(ctx context.Context) (*domain.User, error) {
	caller, err := s.identity.Caller(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.userRepo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, &domain.StoreError{Op: "users.find", Err: err}
	}
	if u == nil {
		return nil, &domain.NotFoundError{Resource: "user", ID: caller.ID}
	}
	return u, nil
}
