package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/visitor-register/internal/analytics"
	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/internal/repository"
	"github.com/diagnosis/visitor-register/internal/utils"
	"github.com/diagnosis/visitor-register/pkg/config"
	"github.com/diagnosis/visitor-register/pkg/events"
	"github.com/diagnosis/visitor-register/pkg/logger"
)

type VisitorService interface {
	CheckIn(ctx context.Context, req *domain.CheckInRequest) (*domain.Visitor, error)
	CheckOut(ctx context.Context, id string) (*domain.Visitor, error)
	Get(ctx context.Context, id string) (*domain.Visitor, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Visitor, error)
	Board(ctx context.Context, search string, limit int) (analytics.Board, error)
	Analytics(ctx context.Context, search string, limit int) ([]analytics.VisitorSummary, error)
}

// VisitorMetrics is the subset of the metrics registry the lifecycle updates.
type VisitorMetrics interface {
	IncCheckIns()
	IncCheckOuts()
	IncRejectedCheckOuts()
}

type Clock func() time.Time

type visitorService struct {
	visitorRepo repository.VisitorRepository
	userRepo    repository.UserRepository
	identity    Identity
	publisher   events.Publisher
	metrics     VisitorMetrics
	config      config.VisitorsConfig
	now         Clock
}

type VisitorServiceOption func(*visitorService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(c Clock) VisitorServiceOption {
	return func(s *visitorService) { s.now = c }
}

func WithMetrics(m VisitorMetrics) VisitorServiceOption {
	return func(s *visitorService) { s.metrics = m }
}

func NewVisitorService(
	visitorRepo repository.VisitorRepository,
	userRepo repository.UserRepository,
	identity Identity,
	publisher events.Publisher,
	cfg config.VisitorsConfig,
	opts ...VisitorServiceOption,
) VisitorService {
	s := &visitorService{
		visitorRepo: visitorRepo,
		userRepo:    userRepo,
		identity:    identity,
		publisher:   publisher,
		config:      cfg,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *visitorService) CheckIn(ctx context.Context, req *domain.CheckInRequest) (*domain.Visitor, error) {
	req.Normalize()
	if err := req.Validate(s.config.RequireOrganisation); err != nil {
		return nil, err
	}

	caller, err := s.identity.Caller(ctx)
	if err != nil {
		return nil, err
	}

	hostID, err := s.resolveHost(ctx, caller, req.HostID)
	if err != nil {
		return nil, err
	}

	v, err := s.visitorRepo.Create(ctx, &domain.Visitor{
		Name:           req.Name,
		IDNumber:       req.IDNumber,
		PhoneNumber:    req.PhoneNumber,
		Organisation:   req.Organisation,
		PurposeOfVisit: req.PurposeOfVisit,
		PersonForVisit: req.PersonForVisit,
		HostID:         hostID,
		CheckInTime:    s.now().UTC(),
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "visitors.create", Err: err}
	}

	logger.InfoContext(ctx, "Visitor checked in", "visitor_id", v.ID, "host_id", v.HostID)
	if s.metrics != nil {
		s.metrics.IncCheckIns()
	}
	s.publish(ctx, events.VisitorCheckedIn, events.VisitorCheckedInEvent{
		VisitorID:      v.ID,
		Name:           v.Name,
		IDNumber:       v.IDNumber,
		Organisation:   v.Organisation,
		PurposeOfVisit: v.PurposeOfVisit,
		PersonForVisit: v.PersonForVisit,
		HostID:         v.HostID,
		CheckInTime:    v.CheckInTime,
	})
	return v, nil
}

// CheckOut stamps the departure of an on-site visitor. A visitor who already
// left is rejected with ErrAlreadyCheckedOut; the first timestamp stands.
func (s *visitorService) CheckOut(ctx context.Context, id string) (*domain.Visitor, error) {
	id = utils.NormalizeString(id)
	if id == "" {
		return nil, domain.NewValidationError(domain.Violation{Field: "id", Message: "id is required"})
	}

	v, err := s.visitorRepo.Checkout(ctx, id, s.now().UTC())
	if err != nil {
		return nil, &domain.StoreError{Op: "visitors.checkout", Err: err}
	}
	if v == nil {
		existing, err := s.visitorRepo.GetByID(ctx, id)
		if err != nil {
			return nil, &domain.StoreError{Op: "visitors.get", Err: err}
		}
		if existing == nil {
			return nil, &domain.NotFoundError{Resource: "visitor", ID: id}
		}
		if s.metrics != nil {
			s.metrics.IncRejectedCheckOuts()
		}
		return nil, domain.ErrAlreadyCheckedOut
	}

	logger.InfoContext(ctx, "Visitor checked out", "visitor_id", v.ID)
	if s.metrics != nil {
		s.metrics.IncCheckOuts()
	}
	s.publish(ctx, events.VisitorCheckedOut, events.VisitorCheckedOutEvent{
		VisitorID:    v.ID,
		IDNumber:     v.IDNumber,
		HostID:       v.HostID,
		CheckInTime:  v.CheckInTime,
		CheckOutTime: *v.CheckOutTime,
	})
	return v, nil
}

func (s *visitorService) Get(ctx context.Context, id string) (*domain.Visitor, error) {
	v, err := s.visitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.StoreError{Op: "visitors.get", Err: err}
	}
	if v == nil {
		return nil, &domain.NotFoundError{Resource: "visitor", ID: id}
	}
	return v, nil
}

func (s *visitorService) ListRecent(ctx context.Context, limit int) ([]domain.Visitor, error) {
	visitors, err := s.visitorRepo.ListRecent(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, &domain.StoreError{Op: "visitors.list", Err: err}
	}
	if visitors == nil {
		visitors = []domain.Visitor{}
	}
	return visitors, nil
}

func (s *visitorService) Board(ctx context.Context, search string, limit int) (analytics.Board, error) {
	visitors, err := s.ListRecent(ctx, limit)
	if err != nil {
		return analytics.Board{}, err
	}
	return analytics.Partition(visitors, search), nil
}

func (s *visitorService) Analytics(ctx context.Context, search string, limit int) ([]analytics.VisitorSummary, error) {
	visitors, err := s.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return analytics.Aggregate(visitors, search), nil
}

// resolveHost returns the user the visit is linked to. Without an explicit
// hostId the caller is used, but only once they have a user record; a caller
// who has not onboarded yet checks the visitor in unlinked.
func (s *visitorService) resolveHost(ctx context.Context, caller Caller, requested *string) (*string, error) {
	id := caller.ID
	if requested != nil {
		id = *requested
	}

	host, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StoreError{Op: "users.find", Err: err}
	}
	if host == nil {
		if requested == nil {
			logger.WarnContext(ctx, "Caller has no user record, visit not linked to a host", "caller_id", caller.ID)
			return nil, nil
		}
		return nil, domain.NewValidationError(domain.Violation{
			Field:   "hostId",
			Message: fmt.Sprintf("host %q does not exist", id),
		})
	}
	return &host.ID, nil
}

func (s *visitorService) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.config.ListLimit
	}
	if s.config.MaxListLimit > 0 && limit > s.config.MaxListLimit {
		limit = s.config.MaxListLimit
	}
	return limit
}

// publish never fails the caller; the visit is already persisted.
func (s *visitorService) publish(ctx context.Context, subject string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
