package backend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-site/internal/models"
	"rental-site/internal/util"
)

type profileRepository struct {
	client RestClient
}

func NewProfileRepository(client RestClient) ProfileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) List(ctx context.Context) ([]*models.UserProfile, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	}
	var profiles []*models.UserProfile
	if err := r.client.Select(ctx, tableProfiles, query, &profiles); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	query := byID(id.String())
	query.Set("limit", "1")

	var profiles []*models.UserProfile
	if err := r.client.Select(ctx, tableProfiles, query, &profiles); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return first(profiles)
}

func (r *profileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.UserProfile, error) {
	var updated []*models.UserProfile
	err := r.client.Update(ctx, tableProfiles, byID(id.String()), map[string]string{"role": role}, &updated)
	if err != nil {
		util.Error("Failed to update role",
			zap.String("user_id", id.String()),
			zap.String("role", role),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return first(updated)
}
