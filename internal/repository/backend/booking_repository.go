package backend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-site/internal/models"
	"rental-site/internal/util"
)

type bookingRepository struct {
	client RestClient
}

func NewBookingRepository(client RestClient) BookingRepository {
	return &bookingRepository{client: client}
}

func (r *bookingRepository) List(ctx context.Context, status string) ([]*models.Booking, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	}
	if status != "" {
		query.Set("status", eq(status))
	}

	var bookings []*models.Booking
	if err := r.client.Select(ctx, tableBookings, query, &bookings); err != nil {
		util.Error("Failed to list bookings", zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	query := byID(id.String())
	query.Set("limit", "1")

	var bookings []*models.Booking
	if err := r.client.Select(ctx, tableBookings, query, &bookings); err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return first(bookings)
}

func (r *bookingRepository) Create(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	body := struct {
		*models.BookingRequest
		Status string `json:"status"`
	}{req, models.BookingPending}

	var created []*models.Booking
	if err := r.client.Insert(ctx, tableBookings, body, &created); err != nil {
		// the bookings exclusion constraint has the final word on overlaps
		if isConflict(err) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		util.Error("Failed to create booking",
			zap.String("vehicle_id", req.VehicleID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return first(created)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Booking, error) {
	body := map[string]string{"status": status}

	var updated []*models.Booking
	if err := r.client.Update(ctx, tableBookings, byID(id.String()), body, &updated); err != nil {
		util.Error("Failed to update booking status",
			zap.String("booking_id", id.String()),
			zap.String("status", status),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return first(updated)
}

func (r *bookingRepository) HasOverlap(ctx context.Context, req *models.BookingRequest) (bool, error) {
	query := url.Values{
		"select":      {"id"},
		"vehicle_id":  {eq(req.VehicleID.String())},
		"status":      {fmt.Sprintf("in.(%s,%s)", models.BookingPending, models.BookingConfirmed)},
		"pickup_date": {"lt." + req.ReturnDate.UTC().Format(time.RFC3339)},
		"return_date": {"gt." + req.PickupDate.UTC().Format(time.RFC3339)},
		"limit":       {"1"},
	}

	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := r.client.Select(ctx, tableBookings, query, &rows); err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return len(rows) > 0, nil
}
