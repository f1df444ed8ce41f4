package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-site/internal/models"
	"rental-site/internal/notify"
)

// AdminOps is implemented by service.AdminService.
type AdminOps interface {
	AdminResolver
	ListVehicles(ctx context.Context) ([]*models.Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, actor *models.UserProfile, in *models.VehicleInput) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, actor *models.UserProfile, id uuid.UUID, in *models.VehicleInput) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, actor *models.UserProfile, id uuid.UUID) error
	ListBookings(ctx context.Context, status string) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, actor *models.UserProfile, id uuid.UUID, status string) (*models.Booking, error)
	ListUsers(ctx context.Context) ([]*models.UserProfile, error)
	UpdateUserRole(ctx context.Context, actor *models.UserProfile, id uuid.UUID, role string) (*models.UserProfile, error)
	ContactSettings(ctx context.Context) (*models.ContactSettings, error)
	UpdateContactSettings(ctx context.Context, actor *models.UserProfile, in *models.ContactSettingsInput) (*models.ContactSettings, error)
}

// AdminHandler handles the back office API.
type AdminHandler struct {
	base
	admin    AdminOps
	notifier Notifier
}

func NewAdminHandler(admin AdminOps, notifier Notifier, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{base: base{logger: logger}, admin: admin, notifier: notifier}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(h.admin, h.logger))

		r.Get("/vehicles", h.ListVehicles)
		r.Post("/vehicles", h.CreateVehicle)
		r.Get("/vehicles/{vehicleID}", h.GetVehicle)
		r.Put("/vehicles/{vehicleID}", h.UpdateVehicle)
		r.Delete("/vehicles/{vehicleID}", h.DeleteVehicle)

		r.Get("/bookings", h.ListBookings)
		r.Get("/bookings/{bookingID}", h.GetBooking)
		r.Patch("/bookings/{bookingID}/status", h.UpdateBookingStatus)

		r.Get("/users", h.ListUsers)
		r.Patch("/users/{userID}/role", h.UpdateUserRole)

		r.Get("/settings/contact", h.GetContactSettings)
		r.Put("/settings/contact", h.UpdateContactSettings)
	})
}

// ===================== VEHICLES =====================

func (h *AdminHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.admin.ListVehicles(r.Context())
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to list vehicles")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(vehicles, ""))
}

func (h *AdminHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "vehicleID")
	if !ok {
		return
	}
	vehicle, err := h.admin.GetVehicle(r.Context(), id)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to get vehicle")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(vehicle, ""))
}

func (h *AdminHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if err := decodeAndValidate(w, r, &in); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid vehicle")
		return
	}
	vehicle, err := h.admin.CreateVehicle(r.Context(), currentAdmin(r), &in)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to create vehicle")
		return
	}
	toast(h.notifier, r, notify.KindSuccess, "Vehicle created", vehicle.Name)
	h.respondWithJSON(w, http.StatusCreated, successResponse(vehicle, "Vehicle created successfully"))
}

func (h *AdminHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "vehicleID")
	if !ok {
		return
	}
	var in models.VehicleInput
	if err := decodeAndValidate(w, r, &in); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid vehicle")
		return
	}
	vehicle, err := h.admin.UpdateVehicle(r.Context(), currentAdmin(r), id, &in)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to update vehicle")
		return
	}
	toast(h.notifier, r, notify.KindSuccess, "Vehicle saved", vehicle.Name)
	h.respondWithJSON(w, http.StatusOK, successResponse(vehicle, "Vehicle updated successfully"))
}

func (h *AdminHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "vehicleID")
	if !ok {
		return
	}
	if err := h.admin.DeleteVehicle(r.Context(), currentAdmin(r), id); err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to delete vehicle")
		return
	}
	toast(h.notifier, r, notify.KindInfo, "Vehicle deleted", "")
	w.WriteHeader(http.StatusNoContent)
}

// ===================== BOOKINGS =====================

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if err := validate.Var(status, "omitempty,oneof=pending confirmed cancelled completed"); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid status filter")
		return
	}
	bookings, err := h.admin.ListBookings(r.Context(), status)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to list bookings")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(bookings, ""))
}

func (h *AdminHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookingID")
	if !ok {
		return
	}
	booking, err := h.admin.GetBooking(r.Context(), id)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to get booking")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(booking, ""))
}

func (h *AdminHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "bookingID")
	if !ok {
		return
	}
	var req models.BookingStatusUpdate
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid status")
		return
	}
	booking, err := h.admin.UpdateBookingStatus(r.Context(), currentAdmin(r), id, req.Status)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to update booking")
		return
	}
	toast(h.notifier, r, notify.KindSuccess, "Booking "+booking.Status, "")
	h.respondWithJSON(w, http.StatusOK, successResponse(booking, "Booking updated successfully"))
}

// ===================== USERS =====================

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to list users")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(users, ""))
}

func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req models.RoleUpdate
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid role")
		return
	}
	profile, err := h.admin.UpdateUserRole(r.Context(), currentAdmin(r), id, req.Role)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to update role")
		return
	}
	toast(h.notifier, r, notify.KindSuccess, "Role updated", profile.Email)
	h.respondWithJSON(w, http.StatusOK, successResponse(profile, "Role updated successfully"))
}

// ===================== CONTACT SETTINGS =====================

func (h *AdminHandler) GetContactSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.admin.ContactSettings(r.Context())
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to get contact settings")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(settings, ""))
}

func (h *AdminHandler) UpdateContactSettings(w http.ResponseWriter, r *http.Request) {
	var in models.ContactSettingsInput
	if err := decodeAndValidate(w, r, &in); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid contact settings")
		return
	}
	settings, err := h.admin.UpdateContactSettings(r.Context(), currentAdmin(r), &in)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to update contact settings")
		return
	}
	toast(h.notifier, r, notify.KindSuccess, "Contact settings saved", "")
	h.respondWithJSON(w, http.StatusOK, successResponse(settings, "Contact settings updated successfully"))
}

func (h *AdminHandler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
