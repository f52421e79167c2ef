/**
 * @description
 * This file contains the HTTP handlers for paym endpoints: owner-facing
 * creation/listing/deletion and the public share view by slug.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For route parameters.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paym/profile-service/internal/app"
	"github.com/paym/profile-service/internal/domain"
	"github.com/paym/profile-service/internal/store"
)

const maxPaymNoteLength = 280

// CreatePaymHandler handles requests to create a new paym.
func (h *ProfileHandlers) CreatePaymHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveOwnerProfile(w, r, "create_paym")
	if !ok {
		return
	}

	var req domain.CreatePaymRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if req.AmountPaise <= 0 {
		h.writeError(w, http.StatusBadRequest, "Amount must be greater than 0")
		return
	}
	if len(req.Note) > maxPaymNoteLength {
		h.writeError(w, http.StatusBadRequest, "Note is too long")
		return
	}
	if req.ExpiryInMinutes < 0 {
		h.writeError(w, http.StatusBadRequest, "Expiry must not be negative")
		return
	}

	response, err := h.service.CreatePaym(r.Context(), profileID, req)
	if err != nil {
		log.Printf("level=error component=api endpoint=create_paym outcome=failed profile_id=%s err=%v", profileID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create paym")
		return
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// ListPaymsHandler lists the authenticated owner's payms, newest first.
func (h *ProfileHandlers) ListPaymsHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveOwnerProfile(w, r, "list_payms")
	if !ok {
		return
	}

	payms, err := h.service.ListPayms(r.Context(), profileID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_payms outcome=failed profile_id=%s err=%v", profileID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list payms")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"payms": payms})
}

// DeletePaymHandler removes one of the owner's payms.
func (h *ProfileHandlers) DeletePaymHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveOwnerProfile(w, r, "delete_paym")
	if !ok {
		return
	}

	paymID, err := uuid.Parse(chi.URLParam(r, "paymID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid paym ID")
		return
	}

	deleted, err := h.service.DeletePaym(r.Context(), profileID, paymID)
	if err != nil {
		log.Printf("level=error component=api endpoint=delete_paym outcome=failed profile_id=%s paym_id=%s err=%v", profileID, paymID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete paym")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "Paym not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// GetPaymHandler serves the public share view of a paym by slug. An expired
// paym returns 410 so clients can distinguish "gone" from "never existed".
func (h *ProfileHandlers) GetPaymHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	view, err := h.service.GetPaymBySlug(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPaymNotFound):
			h.writeError(w, http.StatusNotFound, "Paym not found")
		case errors.Is(err, app.ErrPaymExpired):
			h.writeError(w, http.StatusGone, "This paym has expired")
		default:
			log.Printf("level=error component=api endpoint=get_paym outcome=failed slug=%s err=%v", slug, err)
			h.writeError(w, http.StatusInternalServerError, "Failed to load paym")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}
