package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"rental-site/internal/notify"
)

// Notifier is implemented by service.NotificationService.
type Notifier interface {
	Show(sessionID string, in notify.Input) (string, error)
	Dismiss(sessionID, id string)
	List(sessionID string) []notify.Notification
}

type notificationView struct {
	ID         string      `json:"id"`
	Kind       notify.Kind `json:"kind"`
	Title      string      `json:"title"`
	Message    string      `json:"message,omitempty"`
	DurationMs int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

type showNotificationRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=success error warning info"`
	Title      string `json:"title" validate:"required,max=120"`
	Message    string `json:"message" validate:"max=500"`
	DurationMs int64  `json:"duration_ms" validate:"min=0,max=60000"`
}

// NotificationHandler exposes the caller's toast queue.
type NotificationHandler struct {
	base
	notifier Notifier
}

func NewNotificationHandler(notifier Notifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{base: base{logger: logger}, notifier: notifier}
}

func (h *NotificationHandler) RegisterRoutes(router chi.Router) {
	router.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Show)
		r.Delete("/{notificationID}", h.Dismiss)
	})
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.notifier.List(sessionID(r))
	views := make([]notificationView, 0, len(items))
	for _, n := range items {
		views = append(views, notificationView{
			ID:         n.ID,
			Kind:       n.Kind,
			Title:      n.Title,
			Message:    n.Message,
			DurationMs: n.DurationMs(),
			CreatedAt:  n.CreatedAt,
		})
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(views, ""))
}

func (h *NotificationHandler) Show(w http.ResponseWriter, r *http.Request) {
	var req showNotificationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid notification")
		return
	}

	id, err := h.notifier.Show(sessionID(r), notify.Input{
		Kind:     notify.Kind(req.Kind),
		Title:    req.Title,
		Message:  req.Message,
		Duration: time.Duration(req.DurationMs) * time.Millisecond,
	})
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, "Invalid notification")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, successResponse(map[string]string{"id": id}, ""))
}

// Dismiss always answers 204; dismissing an unknown or expired id is a no-op.
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.notifier.Dismiss(sessionID(r), chi.URLParam(r, "notificationID"))
	w.WriteHeader(http.StatusNoContent)
}

// toast pushes a server-side notification into the caller's session.
func toast(n Notifier, r *http.Request, kind notify.Kind, title, message string) {
	if n == nil || sessionID(r) == "" {
		return
	}
	_, _ = n.Show(sessionID(r), notify.Input{Kind: kind, Title: title, Message: message})
}
