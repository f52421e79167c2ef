/**
 * @description
 * This file defines the domain models for payms: shareable, optionally
 * time-limited payment requests published by a profile owner. A paym carries
 * an amount, a note, and a short slug that forms the public share URL.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (paise),
 *   which avoids floating-point inaccuracies with financial data.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Paym statuses.
const (
	PaymStatusActive  = "active"
	PaymStatusExpired = "expired"
)

// Paym is a shareable payment request. Maps to the `payms` table.
type Paym struct {
	ID          uuid.UUID  `json:"id"`
	ProfileID   uuid.UUID  `json:"profile_id"`
	Slug        string     `json:"slug"`
	AmountPaise int64      `json:"amount_paise"`
	Note        string     `json:"note"`
	Status      string     `json:"status"` // 'active', 'expired'
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Expired reports whether the paym should no longer be served, either because
// the sweeper already flipped its status or because its deadline has passed.
func (p *Paym) Expired(now time.Time) bool {
	if p.Status == PaymStatusExpired {
		return true
	}
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// CreatePaymRequest is the DTO for creating a new paym.
type CreatePaymRequest struct {
	AmountPaise     int64  `json:"amount_paise"`
	Note            string `json:"note"`
	ExpiryInMinutes int    `json:"expiry_in_minutes"` // 0 means no expiry
}

// CreatePaymResponse is returned to the owner after a paym is created.
type CreatePaymResponse struct {
	Paym     *Paym  `json:"paym"`
	ShareURL string `json:"share_url"`
}

// PaymView is the public view of a paym, served from the share URL.
type PaymView struct {
	Slug        string      `json:"slug"`
	AmountPaise int64       `json:"amount_paise"`
	Note        string      `json:"note"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	Creator     ProfileCard `json:"creator"`
}
