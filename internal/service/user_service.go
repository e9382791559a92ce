package service

import (
	"context"
	"errors"

	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/internal/repository"
	"github.com/diagnosis/visitor-register/internal/utils"
	"github.com/diagnosis/visitor-register/pkg/events"
	"github.com/diagnosis/visitor-register/pkg/logger"
)

type UserService interface {
	Create(ctx context.Context, caller Caller, req *domain.CreateUserRequest) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id string, patch *domain.UserPatch) (*domain.User, error)
}

type userService struct {
	userRepo  repository.UserRepository
	publisher events.Publisher
}

func NewUserService(userRepo repository.UserRepository, publisher events.Publisher) UserService {
	return &userService{userRepo: userRepo, publisher: publisher}
}

// Create onboards the caller. The id and e-mail always come from the caller
// identity, never from the request body.
func (s *userService) Create(ctx context.Context, caller Caller, req *domain.CreateUserRequest) (*domain.User, error) {
	if caller.ID == "" {
		return nil, domain.ErrUnauthenticated
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, &domain.StoreError{Op: "users.find", Err: err}
	}
	if existing != nil {
		return nil, &domain.ConflictError{Resource: "user", Message: "user already exists"}
	}

	u, err := s.userRepo.Create(ctx, &domain.User{
		ID:             caller.ID,
		TeamLeaderName: req.TeamLeaderName,
		Organisation:   req.Organisation,
		CompanyNumber:  req.CompanyNumber,
		Email:          utils.NormalizeEmail(caller.Email),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, &domain.ConflictError{Resource: "user", Message: "user already exists"}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "users.create", Err: err}
	}

	logger.InfoContext(ctx, "User created", "user_id", u.ID)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.UserCreated, events.UserCreatedEvent{
			UserID:       u.ID,
			Email:        u.Email,
			Organisation: u.Organisation,
			CreatedAt:    u.CreatedAt,
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish event", "subject", events.UserCreated, "error", err)
		}
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StoreError{Op: "users.find", Err: err}
	}
	if u == nil {
		return nil, &domain.NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError(domain.Violation{Field: "email", Message: "email is required"})
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, &domain.StoreError{Op: "users.find_by_email", Err: err}
	}
	if u == nil {
		return nil, &domain.NotFoundError{Resource: "user", ID: email}
	}
	return u, nil
}

// Update applies only the fields present in patch. An empty patch returns
// the stored user unchanged.
func (s *userService) Update(ctx context.Context, id string, patch *domain.UserPatch) (*domain.User, error) {
	if patch == nil || patch.Empty() {
		return s.GetByID(ctx, id)
	}

	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	u, err := s.userRepo.Update(ctx, id, *patch)
	if err != nil {
		return nil, &domain.StoreError{Op: "users.update", Err: err}
	}
	if u == nil {
		return nil, &domain.NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}
