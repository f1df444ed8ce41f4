package models

import "time"

// Event types published to the event stream.
const (
	EventPasswordResetRequested    = "password_reset_requested"
	EventPasswordResetThrottled    = "password_reset_throttled"
	EventPasswordResetBackendError = "password_reset_backend_error"

	EventVehicleCreated         = "vehicle_created"
	EventVehicleUpdated         = "vehicle_updated"
	EventVehicleDeleted         = "vehicle_deleted"
	EventBookingRequested       = "booking_requested"
	EventBookingStatusChanged   = "booking_status_changed"
	EventUserRoleChanged        = "user_role_changed"
	EventContactSettingsUpdated = "contact_settings_updated"
	EventContactMessageReceived = "contact_message_received"
)

// SecurityEvent records an auth-related action. Identity fields are
// fingerprints, never raw addresses.
type SecurityEvent struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	EventTime   time.Time         `json:"event_time"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// DomainEvent records a back-office change.
type DomainEvent struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	EventTime time.Time         `json:"event_time"`
	ActorID   string            `json:"actor_id,omitempty"`
	Subject   string            `json:"subject"`
	Details   map[string]string `json:"details,omitempty"`
}
