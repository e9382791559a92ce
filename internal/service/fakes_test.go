package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

type fakeVisitorRepo struct {
	mu       sync.Mutex
	visitors map[string]*domain.Visitor
	seq      int
	fail     error
	creates  int
}

func newFakeVisitorRepo() *fakeVisitorRepo {
	return &fakeVisitorRepo{visitors: map[string]*domain.Visitor{}}
}

func (r *fakeVisitorRepo) Create(_ context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	r.seq++
	r.creates++
	stored := *v
	stored.ID = fmt.Sprintf("visitor-%d", r.seq)
	r.visitors[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *fakeVisitorRepo) GetByID(_ context.Context, id string) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	v, ok := r.visitors[id]
	if !ok {
		return nil, nil
	}
	out := *v
	return &out, nil
}

func (r *fakeVisitorRepo) Checkout(_ context.Context, id string, at time.Time) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	v, ok := r.visitors[id]
	if !ok || v.CheckOutTime != nil {
		return nil, nil
	}
	if at.Before(v.CheckInTime) {
		at = v.CheckInTime
	}
	v.CheckOutTime = &at
	out := *v
	return &out, nil
}

func (r *fakeVisitorRepo) ListRecent(_ context.Context, limit int) ([]domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	out := make([]domain.Visitor, 0, len(r.visitors))
	for _, v := range r.visitors {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.After(out[j].CheckInTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	fail  error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*domain.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	if _, ok := r.users[u.ID]; ok {
		return nil, repository.ErrDuplicate
	}
	stored := *u
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[u.ID] = &stored
	out := stored
	return &out, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if patch.TeamLeaderName != nil {
		u.TeamLeaderName = *patch.TeamLeaderName
	}
	if patch.Organisation != nil {
		u.Organisation = *patch.Organisation
	}
	if patch.CompanyNumber != nil {
		u.CompanyNumber = *patch.CompanyNumber
	}
	out := *u
	return &out, nil
}

type fakeCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]*domain.Credential
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{creds: map[string]*domain.Credential{}}
}

func (r *fakeCredentialRepo) Create(_ context.Context, c *domain.Credential) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[c.Email]; ok {
		return nil, repository.ErrDuplicate
	}
	stored := *c
	stored.CreatedAt = time.Now()
	r.creds[c.Email] = &stored
	out := stored
	return &out, nil
}

func (r *fakeCredentialRepo) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[email]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

type published struct {
	subject string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	fail   error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, published{subject: subject, payload: data})
	return nil
}

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.subject)
	}
	return out
}

type fakeMetrics struct {
	checkIns, checkOuts, rejected int
}

func (m *fakeMetrics) IncCheckIns()          { m.checkIns++ }
func (m *fakeMetrics) IncCheckOuts()         { m.checkOuts++ }
func (m *fakeMetrics) IncRejectedCheckOuts() { m.rejected++ }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
