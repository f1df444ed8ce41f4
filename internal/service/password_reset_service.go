package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rental-site/internal/events"
	"rental-site/internal/hashing"
	"rental-site/internal/metrics"
	"rental-site/internal/models"
	"rental-site/internal/throttle"
	"rental-site/internal/util"
)

// AuthClient sends password recovery emails through the hosted auth API.
type AuthClient interface {
	RecoverPassword(ctx context.Context, email, redirectTo string) error
}

// PasswordResetService gates recovery emails behind the request throttle.
// It never reveals whether an address is registered: apart from
// ErrRateLimited every request succeeds from the caller's point of view.
type PasswordResetService struct {
	throttle    *throttle.Throttle
	auth        AuthClient
	hasher      *hashing.Hasher
	publisher   events.Publisher
	metrics     *metrics.Metrics
	redirectURL string
	logger      *zap.Logger
}

func NewPasswordResetService(
	th *throttle.Throttle,
	auth AuthClient,
	hasher *hashing.Hasher,
	publisher events.Publisher,
	m *metrics.Metrics,
	redirectURL string,
	logger *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		throttle:    th,
		auth:        auth,
		hasher:      hasher,
		publisher:   publisher,
		metrics:     m,
		redirectURL: redirectURL,
		logger:      logger,
	}
}

// RetryAfter is how long a throttled client should wait at most.
func (s *PasswordResetService) RetryAfter() time.Duration {
	return s.throttle.Window()
}

// RequestReset returns ErrRateLimited when clientIP has used up its attempts
// for email; otherwise nil, whatever the auth backend answered.
func (s *PasswordResetService) RequestReset(ctx context.Context, clientIP, email, requestID string) error {
	key := s.hasher.Fingerprint(clientIP, util.NormalizeEmail(email))

	if !s.throttle.Attempt(key) {
		s.metrics.PasswordResets.WithLabelValues(metrics.ResetThrottled).Inc()
		s.logger.Warn("Password reset throttled",
			zap.String("fingerprint", key),
			zap.String("request_id", requestID))
		s.publisher.PublishSecurity(ctx, &models.SecurityEvent{
			EventType:   models.EventPasswordResetThrottled,
			Fingerprint: key,
			RequestID:   requestID,
		})
		return ErrRateLimited
	}

	if err := s.auth.RecoverPassword(ctx, util.NormalizeEmail(email), s.redirectURL); err != nil {
		s.metrics.PasswordResets.WithLabelValues(metrics.ResetBackendError).Inc()
		s.logger.Error("Password reset backend call failed",
			zap.String("fingerprint", key),
			zap.String("request_id", requestID),
			zap.Error(err))
		s.publisher.PublishSecurity(ctx, &models.SecurityEvent{
			EventType:   models.EventPasswordResetBackendError,
			Fingerprint: key,
			RequestID:   requestID,
			Details:     map[string]string{"error": err.Error()},
		})
		return nil
	}

	s.metrics.PasswordResets.WithLabelValues(metrics.ResetAccepted).Inc()
	s.logger.Info("Password reset requested",
		zap.String("fingerprint", key),
		zap.String("request_id", requestID))
	s.publisher.PublishSecurity(ctx, &models.SecurityEvent{
		EventType:   models.EventPasswordResetRequested,
		Fingerprint: key,
		RequestID:   requestID,
	})
	return nil
}
