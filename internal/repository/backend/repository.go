package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"rental-site/internal/client"
	"rental-site/internal/models"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = client.ErrNotFound

// ErrConflict is returned when the backend rejects a write on a unique or
// exclusion constraint.
var ErrConflict = errors.New("conflicting row")

// Postgres SQLSTATEs for unique and exclusion violations.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func isConflict(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusConflict ||
		apiErr.Code == pgUniqueViolation ||
		apiErr.Code == pgExclusionViolation
}

// Table names in the hosted backend.
const (
	tableVehicles        = "vehicles"
	tableBookings        = "bookings"
	tableProfiles        = "profiles"
	tableContactSettings = "contact_settings"
	tableTestimonials    = "testimonials"
	tableContactMessages = "contact_messages"
)

// RestClient is the slice of the backend client the repositories need.
type RestClient interface {
	Select(ctx context.Context, table string, query url.Values, out interface{}) error
	Insert(ctx context.Context, table string, body, out interface{}) error
	Update(ctx context.Context, table string, query url.Values, body, out interface{}) error
	Delete(ctx context.Context, table string, query url.Values, out interface{}) error
}

// VehicleRepository defines the interface for fleet operations
type VehicleRepository interface {
	List(ctx context.Context, filter models.VehicleFilter) ([]*models.Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	Create(ctx context.Context, in *models.VehicleInput) (*models.Vehicle, error)
	Update(ctx context.Context, id uuid.UUID, in *models.VehicleInput) (*models.Vehicle, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookingRepository defines the interface for booking operations
type BookingRepository interface {
	List(ctx context.Context, status string) ([]*models.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Create(ctx context.Context, req *models.BookingRequest) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Booking, error)
	// HasOverlap reports a pending or confirmed booking of the vehicle that
	// intersects [pickup, return).
	HasOverlap(ctx context.Context, req *models.BookingRequest) (bool, error)
}

// ProfileRepository defines the interface for user profile operations
type ProfileRepository interface {
	List(ctx context.Context) ([]*models.UserProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.UserProfile, error)
}

// SiteRepository covers the site content tables.
type SiteRepository interface {
	GetContactSettings(ctx context.Context) (*models.ContactSettings, error)
	UpdateContactSettings(ctx context.Context, in *models.ContactSettingsInput) (*models.ContactSettings, error)
	ListTestimonials(ctx context.Context, publishedOnly bool) ([]*models.Testimonial, error)
	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
}

func eq(v string) string { return "eq." + v }

func byID(id string) url.Values {
	return url.Values{"id": {eq(id)}}
}

// first returns the only element of rows or ErrNotFound.
func first[T any](rows []*T) (*T, error) {
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}
