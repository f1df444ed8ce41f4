package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-site/internal/models"
	"rental-site/internal/notify"
	"rental-site/internal/service"
)

// SiteReader is implemented by service.SiteService.
type SiteReader interface {
	Home(ctx context.Context) (*models.HomePage, error)
	Catalog(ctx context.Context, category, search string) ([]*models.Vehicle, error)
	Vehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	About(ctx context.Context) (*models.AboutPage, error)
	Testimonials(ctx context.Context) ([]*models.Testimonial, error)
	Contact(ctx context.Context) (*models.ContactSettings, error)
	SubmitContact(ctx context.Context, msg *models.ContactMessage) error
	RequestBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error)
}

// SiteHandler serves the public page data.
type SiteHandler struct {
	base
	site     SiteReader
	notifier Notifier
}

func NewSiteHandler(site SiteReader, notifier Notifier, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{base: base{logger: logger}, site: site, notifier: notifier}
}

func (h *SiteHandler) RegisterRoutes(router chi.Router) {
	router.Route("/site", func(r chi.Router) {
		r.Get("/home", h.Home)
		r.Get("/catalog", h.Catalog)
		r.Get("/catalog/{vehicleID}", h.Vehicle)
		r.Get("/about", h.About)
		r.Get("/testimonials", h.Testimonials)
		r.Get("/contact", h.Contact)
		r.Post("/contact", h.SubmitContact)
		r.Post("/bookings", h.RequestBooking)
	})
}

func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.site.Home(r.Context())
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to load home page")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(page, ""))
}

func (h *SiteHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if err := validate.Var(category, "omitempty,oneof=economy compact sedan suv van luxury"); err != nil {
		err = fmt.Errorf("%w: unknown category %q", service.ErrInvalidInput, category)
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid category")
		return
	}
	search := r.URL.Query().Get("q")
	if err := validate.Var(search, "max=80"); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Errorf("%w: search too long", service.ErrInvalidInput), "Invalid search")
		return
	}

	vehicles, err := h.site.Catalog(r.Context(), category, search)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to load catalog")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(vehicles, ""))
}

func (h *SiteHandler) Vehicle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "vehicleID"))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid vehicle ID format")
		return
	}
	vehicle, err := h.site.Vehicle(r.Context(), id)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Vehicle not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(vehicle, ""))
}

func (h *SiteHandler) About(w http.ResponseWriter, r *http.Request) {
	page, err := h.site.About(r.Context())
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to load about page")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(page, ""))
}

func (h *SiteHandler) Testimonials(w http.ResponseWriter, r *http.Request) {
	items, err := h.site.Testimonials(r.Context())
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Failed to load testimonials")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(items, ""))
}

func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request) {
	settings, err := h.site.Contact(r.Context())
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Contact details unavailable")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(settings, ""))
}

func (h *SiteHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var msg models.ContactMessage
	if err := decodeAndValidate(w, r, &msg); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid contact message")
		return
	}
	if err := h.site.SubmitContact(r.Context(), &msg); err != nil {
		toast(h.notifier, r, notify.KindError, "Message not sent", "Please try again in a moment.")
		h.respondWithError(w, getStatusCode(err), err, "Failed to send message")
		return
	}

	toast(h.notifier, r, notify.KindSuccess, "Message sent", "We will get back to you shortly.")
	h.respondWithJSON(w, http.StatusCreated, successResponse(nil, "Message sent"))
}

func (h *SiteHandler) RequestBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid booking request")
		return
	}
	booking, err := h.site.RequestBooking(r.Context(), &req)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Booking request failed")
		return
	}

	toast(h.notifier, r, notify.KindSuccess, "Booking requested", "We will confirm your booking by email.")
	h.respondWithJSON(w, http.StatusCreated, successResponse(booking, "Booking requested"))
}
