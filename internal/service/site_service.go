package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rental-site/internal/config"
	"rental-site/internal/events"
	"rental-site/internal/metrics"
	"rental-site/internal/models"
	"rental-site/internal/repository/backend"
	"rental-site/internal/util"
)

// VehicleCache caches catalog listings. A nil VehicleCache disables caching.
type VehicleCache interface {
	Get(ctx context.Context, filter models.VehicleFilter) ([]*models.Vehicle, bool, error)
	Set(ctx context.Context, filter models.VehicleFilter, vehicles []*models.Vehicle) error
	Invalidate(ctx context.Context) error
}

// SiteService serves the public pages.
type SiteService struct {
	vehicles  backend.VehicleRepository
	bookings  backend.BookingRepository
	site      backend.SiteRepository
	cache     VehicleCache
	publisher events.Publisher
	metrics   *metrics.Metrics
	cfg       config.SiteConfig
	logger    *zap.Logger
}

func NewSiteService(
	vehicles backend.VehicleRepository,
	bookings backend.BookingRepository,
	site backend.SiteRepository,
	cache VehicleCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg config.SiteConfig,
	logger *zap.Logger,
) *SiteService {
	return &SiteService{
		vehicles:  vehicles,
		bookings:  bookings,
		site:      site,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

// Home loads the three home page sections concurrently. Missing contact
// settings leave that section empty rather than failing the page.
func (s *SiteService) Home(ctx context.Context) (*models.HomePage, error) {
	page := &models.HomePage{SiteName: s.cfg.Name}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		featured, err := s.vehicles.List(ctx, models.VehicleFilter{
			OnlyFeatured:  true,
			OnlyAvailable: true,
			Limit:         s.cfg.FeaturedSize,
		})
		if err != nil {
			return err
		}
		page.Featured = featured
		return nil
	})
	g.Go(func() error {
		testimonials, err := s.site.ListTestimonials(ctx, true)
		if err != nil {
			return err
		}
		page.Testimonials = testimonials
		return nil
	})
	g.Go(func() error {
		contact, err := s.contactOrNil(ctx)
		if err != nil {
			return err
		}
		page.Contact = contact
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load home page: %w", err)
	}
	if page.Featured == nil {
		page.Featured = []*models.Vehicle{}
	}
	if page.Testimonials == nil {
		page.Testimonials = []*models.Testimonial{}
	}
	return page, nil
}

// Catalog lists available vehicles, optionally narrowed by category and a
// free-text search on name and brand.
func (s *SiteService) Catalog(ctx context.Context, category, search string) ([]*models.Vehicle, error) {
	filter := models.VehicleFilter{
		Category:      strings.ToLower(strings.TrimSpace(category)),
		Search:        strings.TrimSpace(search),
		OnlyAvailable: true,
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, filter)
		switch {
		case err != nil:
			s.metrics.CatalogCache.WithLabelValues("error").Inc()
		case ok:
			s.metrics.CatalogCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			s.metrics.CatalogCache.WithLabelValues("miss").Inc()
		}
	}

	vehicles, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []*models.Vehicle{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, filter, vehicles); err != nil {
			s.logger.Warn("Failed to cache catalog", zap.Error(err))
		}
	}
	return vehicles, nil
}

func (s *SiteService) Vehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

func (s *SiteService) About(ctx context.Context) (*models.AboutPage, error) {
	contact, err := s.contactOrNil(ctx)
	if err != nil {
		return nil, err
	}
	return &models.AboutPage{
		SiteName:    s.cfg.Name,
		Title:       s.cfg.AboutTitle,
		Body:        s.cfg.AboutBody,
		FoundedYear: s.cfg.FoundedYear,
		Contact:     contact,
	}, nil
}

func (s *SiteService) Testimonials(ctx context.Context) ([]*models.Testimonial, error) {
	items, err := s.site.ListTestimonials(ctx, true)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Testimonial{}
	}
	return items, nil
}

func (s *SiteService) Contact(ctx context.Context) (*models.ContactSettings, error) {
	return s.site.GetContactSettings(ctx)
}

// SubmitContact stores a contact form message. Messages carrying markup or
// script fragments are rejected.
func (s *SiteService) SubmitContact(ctx context.Context, msg *models.ContactMessage) error {
	if util.ContainsSuspicious(msg.Name) || util.ContainsSuspicious(msg.Message) {
		return fmt.Errorf("%w: message contains disallowed content", ErrInvalidInput)
	}
	clean := &models.ContactMessage{
		Name:    util.SanitizeInput(msg.Name),
		Email:   util.NormalizeEmail(msg.Email),
		Phone:   util.SanitizeInput(msg.Phone),
		Message: util.SanitizeInput(msg.Message),
	}
	if err := s.site.CreateContactMessage(ctx, clean); err != nil {
		return err
	}

	s.publisher.PublishDomain(ctx, &models.DomainEvent{
		EventType: models.EventContactMessageReceived,
		Subject:   "contact_messages",
	})
	return nil
}

// RequestBooking records a pending booking for an available vehicle.
func (s *SiteService) RequestBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	if !req.ReturnDate.After(req.PickupDate) {
		return nil, fmt.Errorf("%w: return date must be after pickup date", ErrInvalidInput)
	}

	vehicle, err := s.vehicles.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.Available {
		return nil, ErrVehicleUnavailable
	}
	overlap, err := s.bookings.HasOverlap(ctx, req)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrVehicleUnavailable
	}

	req.CustomerName = util.SanitizeInput(req.CustomerName)
	req.CustomerEmail = util.NormalizeEmail(req.CustomerEmail)
	req.CustomerPhone = util.SanitizeInput(req.CustomerPhone)
	req.Notes = util.SanitizeInput(req.Notes)

	// HasOverlap is advisory; a concurrent request can still win the race
	// and the insert then fails on the backend's exclusion constraint.
	booking, err := s.bookings.Create(ctx, req)
	if err != nil {
		if errors.Is(err, backend.ErrConflict) {
			return nil, ErrVehicleUnavailable
		}
		return nil, err
	}

	s.logger.Info("Booking requested",
		zap.String("booking_id", booking.ID.String()),
		zap.String("vehicle_id", req.VehicleID.String()))
	s.publisher.PublishDomain(ctx, &models.DomainEvent{
		EventType: models.EventBookingRequested,
		Subject:   booking.ID.String(),
		Details:   map[string]string{"vehicle_id": req.VehicleID.String()},
	})
	return booking, nil
}

func (s *SiteService) contactOrNil(ctx context.Context) (*models.ContactSettings, error) {
	contact, err := s.site.GetContactSettings(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return contact, err
}
