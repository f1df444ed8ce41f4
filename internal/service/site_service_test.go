package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rental-site/internal/client"
	"rental-site/internal/config"
	"rental-site/internal/metrics"
	"rental-site/internal/models"
	"rental-site/internal/repository/backend"
)

type siteFixture struct {
	svc      *SiteService
	vehicles *fakeVehicleRepo
	bookings *fakeBookingRepo
	site     *fakeSiteRepo
	cache    *fakeCache
	pub      *recordingPublisher
	metrics  *metrics.Metrics
}

func newSiteFixture(vs ...*models.Vehicle) *siteFixture {
	f := &siteFixture{
		vehicles: newFakeVehicleRepo(vs...),
		bookings: newFakeBookingRepo(),
		site: &fakeSiteRepo{
			settings: &models.ContactSettings{ID: 1, Phone: "+351 210 000 000"},
			testimonials: []*models.Testimonial{
				{Author: "Rui", Published: true},
				{Author: "Draft", Published: false},
			},
		},
		cache:   newFakeCache(),
		pub:     &recordingPublisher{},
		metrics: metrics.New(),
	}
	cfg := config.SiteConfig{Name: "Rental Site", AboutTitle: "About us", AboutBody: "Family run since 2009.", FoundedYear: 2009, FeaturedSize: 6}
	f.svc = NewSiteService(f.vehicles, f.bookings, f.site, f.cache, f.pub, f.metrics, cfg, zap.NewNop())
	return f
}

func vehicle(name, category string, available, featured bool) *models.Vehicle {
	return &models.Vehicle{ID: uuid.New(), Name: name, Category: category, Available: available, Featured: featured}
}

func TestHome(t *testing.T) {
	f := newSiteFixture(
		vehicle("Corolla", "sedan", true, true),
		vehicle("Golf", "compact", true, false),
		vehicle("Ghost", "luxury", false, true),
	)

	page, err := f.svc.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rental Site", page.SiteName)
	require.Len(t, page.Featured, 1)
	assert.Equal(t, "Corolla", page.Featured[0].Name)
	require.Len(t, page.Testimonials, 1)
	assert.Equal(t, "Rui", page.Testimonials[0].Author)
	require.NotNil(t, page.Contact)
}

func TestHome_MissingContactSettings(t *testing.T) {
	f := newSiteFixture()
	f.site.settings = nil

	page, err := f.svc.Home(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page.Contact)
	assert.NotNil(t, page.Featured)
}

func TestHome_RepositoryError(t *testing.T) {
	f := newSiteFixture()
	f.vehicles.err = errors.New("backend down")

	_, err := f.svc.Home(context.Background())
	assert.Error(t, err)
}

func TestCatalog_UsesCache(t *testing.T) {
	f := newSiteFixture(
		vehicle("RAV4", "suv", true, false),
		vehicle("Tucson", "suv", false, false),
		vehicle("Golf", "compact", true, false),
	)
	ctx := context.Background()

	first, err := f.svc.Catalog(ctx, "SUV", "")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "RAV4", first[0].Name)

	second, err := f.svc.Catalog(ctx, "suv", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.vehicles.lists)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CatalogCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CatalogCache.WithLabelValues("hit")))
}

func TestCatalog_WithoutCache(t *testing.T) {
	f := newSiteFixture(vehicle("RAV4", "suv", true, false))
	f.svc.cache = nil

	for i := 0; i < 2; i++ {
		_, err := f.svc.Catalog(context.Background(), "", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.vehicles.lists)
}

func TestAbout(t *testing.T) {
	f := newSiteFixture()
	about, err := f.svc.About(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "About us", about.Title)
	assert.Equal(t, 2009, about.FoundedYear)
	assert.NotNil(t, about.Contact)
}

func TestTestimonials_OnlyPublished(t *testing.T) {
	f := newSiteFixture()
	items, err := f.svc.Testimonials(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestSubmitContact(t *testing.T) {
	f := newSiteFixture()
	err := f.svc.SubmitContact(context.Background(), &models.ContactMessage{
		Name:    " Ana <Silva> ",
		Email:   "Ana@Example.com",
		Message: "Do you have child seats?",
	})
	require.NoError(t, err)
	require.Len(t, f.site.messages, 1)
	stored := f.site.messages[0]
	assert.Equal(t, "Ana &lt;Silva&gt;", stored.Name)
	assert.Equal(t, "ana@example.com", stored.Email)
	require.Len(t, f.pub.domain, 1)
	assert.Equal(t, models.EventContactMessageReceived, f.pub.domain[0].EventType)
}

func TestSubmitContact_RejectsScript(t *testing.T) {
	f := newSiteFixture()
	err := f.svc.SubmitContact(context.Background(), &models.ContactMessage{
		Name:    "x",
		Email:   "x@y.com",
		Message: "<script>alert(1)</script>",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.site.messages)
}

func TestRequestBooking(t *testing.T) {
	car := vehicle("Corolla", "sedan", true, false)
	pickup := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(f *siteFixture)
		req     models.BookingRequest
		wantErr error
	}{
		{
			name: "ok",
			req:  models.BookingRequest{VehicleID: car.ID, CustomerEmail: "A@B.com", PickupDate: pickup, ReturnDate: pickup.Add(72 * time.Hour)},
		},
		{
			name:    "return before pickup",
			req:     models.BookingRequest{VehicleID: car.ID, PickupDate: pickup, ReturnDate: pickup.Add(-time.Hour)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "same instant",
			req:     models.BookingRequest{VehicleID: car.ID, PickupDate: pickup, ReturnDate: pickup},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown vehicle",
			req:     models.BookingRequest{VehicleID: uuid.New(), PickupDate: pickup, ReturnDate: pickup.Add(time.Hour)},
			wantErr: ErrNotFound,
		},
		{
			name:    "unavailable vehicle",
			setup:   func(f *siteFixture) { car.Available = false },
			req:     models.BookingRequest{VehicleID: car.ID, PickupDate: pickup, ReturnDate: pickup.Add(time.Hour)},
			wantErr: ErrVehicleUnavailable,
		},
		{
			name:    "overlapping booking",
			setup:   func(f *siteFixture) { f.bookings.overlap = true },
			req:     models.BookingRequest{VehicleID: car.ID, PickupDate: pickup, ReturnDate: pickup.Add(time.Hour)},
			wantErr: ErrVehicleUnavailable,
		},
		{
			name: "concurrent booking wins the insert",
			setup: func(f *siteFixture) {
				f.bookings.createErr = fmt.Errorf("%w: %w", backend.ErrConflict, &client.APIError{Status: 409, Code: "23P01"})
			},
			req:     models.BookingRequest{VehicleID: car.ID, PickupDate: pickup, ReturnDate: pickup.Add(time.Hour)},
			wantErr: ErrVehicleUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			car.Available = true
			f := newSiteFixture(car)
			if tt.setup != nil {
				tt.setup(f)
			}
			req := tt.req
			booking, err := f.svc.RequestBooking(context.Background(), &req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.bookings.created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.BookingPending, booking.Status)
			assert.Equal(t, "a@b.com", booking.CustomerEmail)
			require.Len(t, f.pub.domain, 1)
			assert.Equal(t, models.EventBookingRequested, f.pub.domain[0].EventType)
		})
	}
}
