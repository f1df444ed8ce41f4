package service

import (
	"rental-site/internal/metrics"
	"rental-site/internal/notify"
)

// NotificationService routes toast operations to the caller's session queue.
type NotificationService struct {
	registry *notify.Registry
	metrics  *metrics.Metrics
}

func NewNotificationService(registry *notify.Registry, m *metrics.Metrics) *NotificationService {
	return &NotificationService{registry: registry, metrics: m}
}

func (s *NotificationService) Show(sessionID string, in notify.Input) (string, error) {
	id, err := s.registry.Queue(sessionID).Show(in)
	if err != nil {
		return "", err
	}
	s.metrics.NotificationsShown.WithLabelValues(string(in.Kind)).Inc()
	return id, nil
}

// Dismiss counts only notifications that were still active.
func (s *NotificationService) Dismiss(sessionID, id string) {
	q, ok := s.registry.Lookup(sessionID)
	if !ok {
		return
	}
	if q.Dismiss(id) {
		s.metrics.NotificationsDismissed.Inc()
	}
}

// List reads without allocating a queue for sessions that never showed one.
func (s *NotificationService) List(sessionID string) []notify.Notification {
	q, ok := s.registry.Lookup(sessionID)
	if !ok {
		return []notify.Notification{}
	}
	return q.List()
}
