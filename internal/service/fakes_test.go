package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rental-site/internal/client"
	"rental-site/internal/models"
)

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*models.Vehicle
	lists    int
	err      error
}

func newFakeVehicleRepo(vs ...*models.Vehicle) *fakeVehicleRepo {
	r := &fakeVehicleRepo{vehicles: map[uuid.UUID]*models.Vehicle{}}
	for _, v := range vs {
		r.vehicles[v.ID] = v
	}
	return r
}

func (r *fakeVehicleRepo) List(_ context.Context, f models.VehicleFilter) ([]*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.Vehicle
	for _, v := range r.vehicles {
		if f.OnlyAvailable && !v.Available {
			continue
		}
		if f.OnlyFeatured && !v.Featured {
			continue
		}
		if f.Category != "" && v.Category != f.Category {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *fakeVehicleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (r *fakeVehicleRepo) Create(_ context.Context, in *models.VehicleInput) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := &models.Vehicle{ID: uuid.New(), Name: in.Name, Category: in.Category, Available: in.Available}
	r.vehicles[v.ID] = v
	return v, nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, id uuid.UUID, in *models.VehicleInput) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	v.Name = in.Name
	return v, nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[id]; !ok {
		return ErrNotFound
	}
	delete(r.vehicles, id)
	return nil
}

type fakeBookingRepo struct {
	bookings  map[uuid.UUID]*models.Booking
	overlap   bool
	created   []*models.BookingRequest
	createErr error
}

func newFakeBookingRepo(bs ...*models.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{bookings: map[uuid.UUID]*models.Booking{}}
	for _, b := range bs {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepo) List(_ context.Context, status string) ([]*models.Booking, error) {
	var out []*models.Booking
	for _, b := range r.bookings {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (r *fakeBookingRepo) Create(_ context.Context, req *models.BookingRequest) (*models.Booking, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, req)
	b := &models.Booking{ID: uuid.New(), VehicleID: req.VehicleID, Status: models.BookingPending, CustomerEmail: req.CustomerEmail}
	r.bookings[b.ID] = b
	return b, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*models.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Status = status
	return b, nil
}

func (r *fakeBookingRepo) HasOverlap(context.Context, *models.BookingRequest) (bool, error) {
	return r.overlap, nil
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*models.UserProfile
}

func (r *fakeProfileRepo) List(context.Context) ([]*models.UserProfile, error) {
	var out []*models.UserProfile
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*models.UserProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) UpdateRole(_ context.Context, id uuid.UUID, role string) (*models.UserProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Role = role
	return p, nil
}

type fakeSiteRepo struct {
	settings     *models.ContactSettings
	testimonials []*models.Testimonial
	messages     []*models.ContactMessage
}

func (r *fakeSiteRepo) GetContactSettings(context.Context) (*models.ContactSettings, error) {
	if r.settings == nil {
		return nil, ErrNotFound
	}
	return r.settings, nil
}

func (r *fakeSiteRepo) UpdateContactSettings(_ context.Context, in *models.ContactSettingsInput) (*models.ContactSettings, error) {
	r.settings = &models.ContactSettings{ID: 1, Phone: in.Phone, Email: in.Email, Address: in.Address}
	return r.settings, nil
}

func (r *fakeSiteRepo) ListTestimonials(_ context.Context, publishedOnly bool) ([]*models.Testimonial, error) {
	var out []*models.Testimonial
	for _, t := range r.testimonials {
		if publishedOnly && !t.Published {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeSiteRepo) CreateContactMessage(_ context.Context, msg *models.ContactMessage) error {
	r.messages = append(r.messages, msg)
	return nil
}

type fakeCache struct {
	entries     map[string][]*models.Vehicle
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]*models.Vehicle{}}
}

func cacheKey(f models.VehicleFilter) string { return f.Category + "|" + f.Search }

func (c *fakeCache) Get(_ context.Context, f models.VehicleFilter) ([]*models.Vehicle, bool, error) {
	v, ok := c.entries[cacheKey(f)]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, f models.VehicleFilter, vs []*models.Vehicle) error {
	c.entries[cacheKey(f)] = vs
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	c.entries = map[string][]*models.Vehicle{}
	return nil
}

type fakeAuth struct {
	mu       sync.Mutex
	calls    []string
	err      error
	users    map[string]*client.AuthUser
	redirect string
}

func (a *fakeAuth) RecoverPassword(_ context.Context, email, redirectTo string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, email)
	a.redirect = redirectTo
	return a.err
}

func (a *fakeAuth) GetUser(_ context.Context, token string) (*client.AuthUser, error) {
	u, ok := a.users[token]
	if !ok {
		return nil, client.ErrUnauthorized
	}
	return u, nil
}

func (a *fakeAuth) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type recordingPublisher struct {
	mu       sync.Mutex
	security []*models.SecurityEvent
	domain   []*models.DomainEvent
}

func (p *recordingPublisher) PublishSecurity(_ context.Context, ev *models.SecurityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.security = append(p.security, ev)
}

func (p *recordingPublisher) PublishDomain(_ context.Context, ev *models.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.domain = append(p.domain, ev)
}

func (p *recordingPublisher) securityTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.security {
		out = append(out, ev.EventType)
	}
	return out
}
