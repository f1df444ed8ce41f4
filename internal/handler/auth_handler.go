package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"rental-site/internal/service"
	"rental-site/internal/util"
)

const (
	resetThrottledMessage = "Too many requests. Please try again later."
	resetAcceptedMessage  = "If an account exists for that email, a password reset link has been sent."
)

// PasswordResetter is implemented by service.PasswordResetService.
type PasswordResetter interface {
	RequestReset(ctx context.Context, clientIP, email, requestID string) error
	RetryAfter() time.Duration
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// AuthHandler handles the password reset request endpoint.
type AuthHandler struct {
	base
	resets PasswordResetter
}

func NewAuthHandler(resets PasswordResetter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{base: base{logger: logger}, resets: resets}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/password-reset", h.RequestPasswordReset)
	})
}

// RequestPasswordReset answers with the same message whether or not the
// address is registered. Only throttling is visible to the caller.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "A valid email address is required")
		return
	}

	err := h.resets.RequestReset(r.Context(), clientIP(r), req.Email, middleware.GetReqID(r.Context()))
	if errors.Is(err, service.ErrRateLimited) {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(h.resets.RetryAfter())))
		h.respondWithJSON(w, http.StatusTooManyRequests, Response{
			Success: false,
			Error:   "rate_limited",
			Message: resetThrottledMessage,
		})
		return
	}
	if err != nil {
		// RequestReset hides backend failures; anything else still must
		// not reveal whether the account exists
		h.logger.Error("Unexpected password reset failure", util.ErrorField(err))
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(nil, resetAcceptedMessage))
}

func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
