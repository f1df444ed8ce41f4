package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-site/internal/client"
	"rental-site/internal/events"
	"rental-site/internal/models"
	"rental-site/internal/repository/backend"
)

// UserResolver maps an access token to the signed-in user.
type UserResolver interface {
	GetUser(ctx context.Context, accessToken string) (*client.AuthUser, error)
}

// AdminService backs the back office. Every mutation takes the acting admin
// for the audit trail.
type AdminService struct {
	vehicles  backend.VehicleRepository
	bookings  backend.BookingRepository
	profiles  backend.ProfileRepository
	site      backend.SiteRepository
	users     UserResolver
	cache     VehicleCache
	publisher events.Publisher
	logger    *zap.Logger
}

func NewAdminService(
	vehicles backend.VehicleRepository,
	bookings backend.BookingRepository,
	profiles backend.ProfileRepository,
	site backend.SiteRepository,
	users UserResolver,
	cache VehicleCache,
	publisher events.Publisher,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		vehicles:  vehicles,
		bookings:  bookings,
		profiles:  profiles,
		site:      site,
		users:     users,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// ResolveAdmin returns ErrUnauthorized for a missing or rejected token and
// ErrForbidden when the user has no admin profile.
func (s *AdminService) ResolveAdmin(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	user, err := s.users.GetUser(ctx, accessToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, ErrUnauthorized
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !profile.IsAdmin() {
		s.logger.Warn("Non-admin user denied back office access", zap.String("user_id", user.ID))
		return nil, ErrForbidden
	}
	return profile, nil
}

// ===================== VEHICLES =====================

func (s *AdminService) ListVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	vehicles, err := s.vehicles.List(ctx, models.VehicleFilter{})
	if err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []*models.Vehicle{}
	}
	return vehicles, nil
}

func (s *AdminService) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

func (s *AdminService) CreateVehicle(ctx context.Context, actor *models.UserProfile, in *models.VehicleInput) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.catalogChanged(ctx, actor, models.EventVehicleCreated, vehicle.ID)
	return vehicle, nil
}

func (s *AdminService) UpdateVehicle(ctx context.Context, actor *models.UserProfile, id uuid.UUID, in *models.VehicleInput) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.catalogChanged(ctx, actor, models.EventVehicleUpdated, id)
	return vehicle, nil
}

func (s *AdminService) DeleteVehicle(ctx context.Context, actor *models.UserProfile, id uuid.UUID) error {
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return err
	}
	s.catalogChanged(ctx, actor, models.EventVehicleDeleted, id)
	return nil
}

func (s *AdminService) catalogChanged(ctx context.Context, actor *models.UserProfile, eventType string, id uuid.UUID) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
		}
	}
	s.publish(ctx, actor, eventType, id.String(), nil)
}

// ===================== BOOKINGS =====================

func (s *AdminService) ListBookings(ctx context.Context, status string) ([]*models.Booking, error) {
	bookings, err := s.bookings.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, nil
}

func (s *AdminService) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// UpdateBookingStatus applies status if the current status allows it.
func (s *AdminService) UpdateBookingStatus(ctx context.Context, actor *models.UserProfile, id uuid.UUID, status string) (*models.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, actor, models.EventBookingStatusChanged, id.String(), map[string]string{
		"from": current.Status,
		"to":   status,
	})
	return updated, nil
}

// ===================== USERS =====================

func (s *AdminService) ListUsers(ctx context.Context) ([]*models.UserProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = []*models.UserProfile{}
	}
	return profiles, nil
}

// UpdateUserRole changes a user's role. An admin cannot demote themselves,
// which keeps at least the acting admin in place.
func (s *AdminService) UpdateUserRole(ctx context.Context, actor *models.UserProfile, id uuid.UUID, role string) (*models.UserProfile, error) {
	if actor != nil && actor.ID == id && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot remove your own admin role", ErrInvalidInput)
	}
	profile, err := s.profiles.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, actor, models.EventUserRoleChanged, id.String(), map[string]string{"role": role})
	return profile, nil
}

// ===================== CONTACT SETTINGS =====================

func (s *AdminService) ContactSettings(ctx context.Context) (*models.ContactSettings, error) {
	return s.site.GetContactSettings(ctx)
}

func (s *AdminService) UpdateContactSettings(ctx context.Context, actor *models.UserProfile, in *models.ContactSettingsInput) (*models.ContactSettings, error) {
	settings, err := s.site.UpdateContactSettings(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, actor, models.EventContactSettingsUpdated, "contact_settings", nil)
	return settings, nil
}

func (s *AdminService) publish(ctx context.Context, actor *models.UserProfile, eventType, subject string, details map[string]string) {
	ev := &models.DomainEvent{
		EventType: eventType,
		Subject:   subject,
		Details:   details,
	}
	if actor != nil {
		ev.ActorID = actor.ID.String()
	}
	s.logger.Info("Back office change",
		zap.String("event_type", eventType),
		zap.String("subject", subject),
		zap.String("actor_id", ev.ActorID))
	s.publisher.PublishDomain(ctx, ev)
}
