package service

import (
	"go.uber.org/zap"

	"rental-site/internal/client"
	"rental-site/internal/config"
	"rental-site/internal/events"
	"rental-site/internal/hashing"
	"rental-site/internal/metrics"
	"rental-site/internal/notify"
	"rental-site/internal/repository/backend"
	"rental-site/internal/throttle"
)

// Dependencies are the shared components the services are built from.
type Dependencies struct {
	Config    *config.Config
	Backend   *client.BackendClient
	Throttle  *throttle.Throttle
	Registry  *notify.Registry
	Hasher    *hashing.Hasher
	Cache     VehicleCache
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	deps Dependencies

	vehicleRepo backend.VehicleRepository
	bookingRepo backend.BookingRepository
	profileRepo backend.ProfileRepository
	siteRepo    backend.SiteRepository

	passwordResetService *PasswordResetService
	notificationService  *NotificationService
	siteService          *SiteService
	adminService         *AdminService
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(deps Dependencies) *ServiceFactory {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	return &ServiceFactory{
		deps:        deps,
		vehicleRepo: backend.NewVehicleRepository(deps.Backend),
		bookingRepo: backend.NewBookingRepository(deps.Backend),
		profileRepo: backend.NewProfileRepository(deps.Backend),
		siteRepo:    backend.NewSiteRepository(deps.Backend),
	}
}

// PasswordResetService returns the password reset service instance (singleton)
func (f *ServiceFactory) PasswordResetService() *PasswordResetService {
	if f.passwordResetService == nil {
		f.passwordResetService = NewPasswordResetService(
			f.deps.Throttle,
			f.deps.Backend,
			f.deps.Hasher,
			f.deps.Publisher,
			f.deps.Metrics,
			f.deps.Config.Backend.ResetRedirectURL,
			f.deps.Logger.Named("password_reset"),
		)
	}
	return f.passwordResetService
}

// NotificationService returns the notification service instance (singleton)
func (f *ServiceFactory) NotificationService() *NotificationService {
	if f.notificationService == nil {
		f.notificationService = NewNotificationService(f.deps.Registry, f.deps.Metrics)
	}
	return f.notificationService
}

// SiteService returns the public site service instance (singleton)
func (f *ServiceFactory) SiteService() *SiteService {
	if f.siteService == nil {
		f.siteService = NewSiteService(
			f.vehicleRepo,
			f.bookingRepo,
			f.siteRepo,
			f.deps.Cache,
			f.deps.Publisher,
			f.deps.Metrics,
			f.deps.Config.Site,
			f.deps.Logger.Named("site"),
		)
	}
	return f.siteService
}

// AdminService returns the back office service instance (singleton)
func (f *ServiceFactory) AdminService() *AdminService {
	if f.adminService == nil {
		f.adminService = NewAdminService(
			f.vehicleRepo,
			f.bookingRepo,
			f.profileRepo,
			f.siteRepo,
			f.deps.Backend,
			f.deps.Cache,
			f.deps.Publisher,
			f.deps.Logger.Named("admin"),
		)
	}
	return f.adminService
}

// Cleanup tears down per-session state held by the services.
func (f *ServiceFactory) Cleanup() {
	if f.deps.Registry != nil {
		f.deps.Registry.Close()
	}
}
