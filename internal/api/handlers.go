/**
 * @description
 * This file contains the HTTP handlers for the profile-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paym/profile-service/internal/app"
	"github.com/paym/profile-service/internal/domain"
	"github.com/paym/profile-service/internal/store"
)

// ProfileHandlers holds the application service that handlers will use.
type ProfileHandlers struct {
	service *app.Service
}

// NewProfileHandlers creates a new instance of ProfileHandlers.
func NewProfileHandlers(service *app.Service) *ProfileHandlers {
	return &ProfileHandlers{service: service}
}

// verifyPinResponse mirrors the shape the web client expects from the gate.
type verifyPinResponse struct {
	Success        bool                   `json:"success"`
	PinRequired    bool                   `json:"pinRequired"`
	PaymentMethods []domain.PaymentMethod `json:"paymentMethods"`
}

// VerifyPinHandler is the public PIN gate. Anonymous visitors post a username
// and PIN; on an allow decision the profile's payment methods come back.
func (h *ProfileHandlers) VerifyPinHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		h.writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	clientIP := clientIPFromRequest(r)
	result, err := h.service.VerifyProfilePin(r.Context(), req, clientIP, r.UserAgent())
	if err != nil {
		h.writeGateError(w, r, req.Username, err)
		return
	}

	h.writeJSON(w, http.StatusOK, verifyPinResponse{
		Success:        true,
		PinRequired:    result.PinRequired,
		PaymentMethods: result.PaymentMethods,
	})
}

// writeGateError maps the gate's error taxonomy onto HTTP statuses. Messages
// stay short and human-readable; internal detail goes to the log only.
func (h *ProfileHandlers) writeGateError(w http.ResponseWriter, r *http.Request, username string, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidPinFormat):
		h.writeError(w, http.StatusBadRequest, "PIN must be 6 characters, A-Z and 0-9 only")
	case errors.Is(err, store.ErrProfileNotFound):
		h.writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, app.ErrTooManyAttempts):
		var limited *app.RateLimitedError
		if errors.As(err, &limited) && limited.RetryAfter > 0 {
			seconds := int(limited.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		h.writeError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
	case errors.Is(err, app.ErrInvalidPin):
		h.writeError(w, http.StatusUnauthorized, "Incorrect PIN")
	default:
		log.Printf("level=error component=api endpoint=verify_pin msg=\"gate failed\" username=%s err=%v", username, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to verify PIN")
	}
}

// GetProfileHandler serves the public profile card. Payment methods are never
// included here; they only leave through the gate.
func (h *ProfileHandlers) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	card, err := h.service.GetPublicProfile(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			h.writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_profile msg=\"profile lookup failed\" username=%s err=%v", username, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to load profile")
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// ListPinAttemptsHandler returns the recent PIN attempt audit records for the
// authenticated owner's profile.
func (h *ProfileHandlers) ListPinAttemptsHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveOwnerProfile(w, r, "list_pin_attempts")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	attempts, err := h.service.ListPinAttempts(r.Context(), profileID, limit)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_pin_attempts msg=\"attempt list failed\" profile_id=%s err=%v", profileID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to load PIN attempts")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

// resolveOwnerProfile maps the Clerk subject from the validated JWT to the
// internal profile UUID, writing the error response itself on failure.
func (h *ProfileHandlers) resolveOwnerProfile(w http.ResponseWriter, r *http.Request, endpoint string) (uuid.UUID, bool) {
	clerkUserID, ok := GetClerkUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Could not get user ID from context")
		return uuid.Nil, false
	}
	profileID, err := h.service.ResolveProfileID(r.Context(), clerkUserID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			h.writeError(w, http.StatusNotFound, "Profile not found")
			return uuid.Nil, false
		}
		log.Printf("level=error component=api endpoint=%s msg=\"profile resolution failed\" clerk_user_id=%s err=%v", endpoint, clerkUserID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to resolve profile")
		return uuid.Nil, false
	}
	return profileID, true
}

// writeJSON is a helper for writing JSON responses.
func (h *ProfileHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *ProfileHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// clientIPFromRequest extracts the client identifier the rate limiter and
// audit trail key on. Forwarded headers are spoofable; that trust boundary is
// accepted for this service since it sits behind the platform proxy.
func clientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndexByte(ip, ':'); idx >= 0 {
		return ip[:idx]
	}
	if ip == "" {
		return "unknown"
	}
	return ip
}
