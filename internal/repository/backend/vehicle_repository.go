package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-site/internal/models"
	"rental-site/internal/util"
)

type vehicleRepository struct {
	client RestClient
}

func NewVehicleRepository(client RestClient) VehicleRepository {
	return &vehicleRepository{client: client}
}

func (r *vehicleRepository) List(ctx context.Context, filter models.VehicleFilter) ([]*models.Vehicle, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"featured.desc,name.asc"},
	}
	if filter.Category != "" {
		query.Set("category", eq(filter.Category))
	}
	if filter.OnlyAvailable {
		query.Set("available", "eq.true")
	}
	if filter.OnlyFeatured {
		query.Set("featured", "eq.true")
	}
	if term := searchTerm(filter.Search); term != "" {
		query.Set("or", fmt.Sprintf("(name.ilike.*%s*,brand.ilike.*%s*)", term, term))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var vehicles []*models.Vehicle
	if err := r.client.Select(ctx, tableVehicles, query, &vehicles); err != nil {
		util.Error("Failed to list vehicles",
			zap.String("category", filter.Category),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	query := byID(id.String())
	query.Set("limit", "1")

	var vehicles []*models.Vehicle
	if err := r.client.Select(ctx, tableVehicles, query, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return first(vehicles)
}

func (r *vehicleRepository) Create(ctx context.Context, in *models.VehicleInput) (*models.Vehicle, error) {
	var created []*models.Vehicle
	if err := r.client.Insert(ctx, tableVehicles, in, &created); err != nil {
		util.Error("Failed to create vehicle", zap.String("name", in.Name), zap.Error(err))
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return first(created)
}

func (r *vehicleRepository) Update(ctx context.Context, id uuid.UUID, in *models.VehicleInput) (*models.Vehicle, error) {
	body := struct {
		*models.VehicleInput
		UpdatedAt time.Time `json:"updated_at"`
	}{in, time.Now().UTC()}

	var updated []*models.Vehicle
	if err := r.client.Update(ctx, tableVehicles, byID(id.String()), body, &updated); err != nil {
		util.Error("Failed to update vehicle", zap.String("vehicle_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return first(updated)
}

// Delete reports ErrNotFound when no row had the id.
func (r *vehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted []*models.Vehicle
	if err := r.client.Delete(ctx, tableVehicles, byID(id.String()), &deleted); err != nil {
		util.Error("Failed to delete vehicle", zap.String("vehicle_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	_, err := first(deleted)
	return err
}

// searchTerm strips characters that carry meaning in a PostgREST
// logic-tree filter.
func searchTerm(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '.', ':', '"', '\\':
			return -1
		}
		return r
	}, s)
}
