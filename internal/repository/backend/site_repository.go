package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"rental-site/internal/models"
	"rental-site/internal/util"
)

const contactSettingsID = 1

type siteRepository struct {
	client RestClient
}

func NewSiteRepository(client RestClient) SiteRepository {
	return &siteRepository{client: client}
}

func (r *siteRepository) GetContactSettings(ctx context.Context) (*models.ContactSettings, error) {
	query := byID(strconv.Itoa(contactSettingsID))
	query.Set("limit", "1")

	var rows []*models.ContactSettings
	if err := r.client.Select(ctx, tableContactSettings, query, &rows); err != nil {
		return nil, fmt.Errorf("failed to get contact settings: %w", err)
	}
	return first(rows)
}

func (r *siteRepository) UpdateContactSettings(ctx context.Context, in *models.ContactSettingsInput) (*models.ContactSettings, error) {
	body := struct {
		*models.ContactSettingsInput
		UpdatedAt time.Time `json:"updated_at"`
	}{in, time.Now().UTC()}

	var rows []*models.ContactSettings
	if err := r.client.Update(ctx, tableContactSettings, byID(strconv.Itoa(contactSettingsID)), body, &rows); err != nil {
		util.Error("Failed to update contact settings", zap.Error(err))
		return nil, fmt.Errorf("failed to update contact settings: %w", err)
	}
	return first(rows)
}

func (r *siteRepository) ListTestimonials(ctx context.Context, publishedOnly bool) ([]*models.Testimonial, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	}
	if publishedOnly {
		query.Set("published", "eq.true")
	}

	var rows []*models.Testimonial
	if err := r.client.Select(ctx, tableTestimonials, query, &rows); err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return rows, nil
}

func (r *siteRepository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if err := r.client.Insert(ctx, tableContactMessages, msg, nil); err != nil {
		util.Error("Failed to store contact message", zap.Error(err))
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
