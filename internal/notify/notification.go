// Package notify keeps the transient, user-facing notifications (toasts)
// of a session in display order and expires each one after its TTL.
package notify

import (
	"errors"
	"strings"
	"time"
)

const DefaultDuration = 5000 * time.Millisecond

var ErrInvalidNotification = errors.New("invalid notification")

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return true
	}
	return false
}

// Notification is immutable once shown.
type Notification struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Title     string        `json:"title"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// DurationMs is the TTL as exposed to clients.
func (n Notification) DurationMs() int64 {
	return n.Duration.Milliseconds()
}

// Input is a notification before the queue assigns it an id.
type Input struct {
	Kind     Kind
	Title    string
	Message  string
	Duration time.Duration
}

func (in Input) validate() error {
	if !in.Kind.Valid() {
		return errors.Join(ErrInvalidNotification, errors.New("unknown kind "+string(in.Kind)))
	}
	if strings.TrimSpace(in.Title) == "" {
		return errors.Join(ErrInvalidNotification, errors.New("title is required"))
	}
	return nil
}
