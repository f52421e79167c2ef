/**
 * @description
 * This file defines the core domain models for the profile-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Using distinct types for API requests, database models, and event
 *   payloads ensures clear separation of concerns and type safety.
 * - The PIN gate treats payment methods as opaque: it selects and releases
 *   them but never interprets their contents.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a public payment profile. This struct maps directly to
// the `profiles` table in the database.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	ClerkUserID string    `json:"-"`
	Username    string    `json:"username"` // case-insensitive unique
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	PinEnabled  bool      `json:"pin_enabled"`
	PinHash     *string   `json:"-"` // salted SHA-256, lowercase hex; nil until the owner sets a PIN
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaymentMethod is one payment identifier attached to a profile. The `kind`
// discriminates which of the optional fields are populated.
type PaymentMethod struct {
	ID            uuid.UUID `json:"id"`
	ProfileID     uuid.UUID `json:"-"`
	Kind          string    `json:"kind"` // 'upi', 'bank', 'card'
	Label         string    `json:"label"`
	VPA           *string   `json:"vpa,omitempty"`
	AccountName   *string   `json:"account_name,omitempty"`
	AccountNumber *string   `json:"account_number,omitempty"`
	IFSC          *string   `json:"ifsc,omitempty"`
	Network       *string   `json:"network,omitempty"`
	Last4         *string   `json:"last4,omitempty"`
	Active        bool      `json:"-"`
	CreatedAt     time.Time `json:"-"`
}

// Payment method kinds.
const (
	PaymentMethodKindUPI  = "upi"
	PaymentMethodKindBank = "bank"
	PaymentMethodKindCard = "card"
)

// PinAttempt is an append-only audit record of one PIN verification that
// reached the hashing stage. Rejections for bad format or rate limiting are
// never recorded.
type PinAttempt struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Success   bool      `json:"success"`
	ClientIP  string    `json:"client_ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// VerifyPinRequest is the DTO for the public PIN gate endpoint.
type VerifyPinRequest struct {
	Username string `json:"username"`
	Pin      string `json:"pin"`
}

// PinGateResult is what the access decision engine releases on Allow.
// PinRequired reports whether a hash comparison was actually performed, so the
// client can distinguish an open profile from a verified one.
type PinGateResult struct {
	PinRequired    bool
	PaymentMethods []PaymentMethod
}

// ProfileCard is the public view of a profile, safe to return without PIN
// verification. Payment methods only leave through the gate.
type ProfileCard struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	PinRequired bool    `json:"pin_required"`
}

// PublicCard builds the unauthenticated view of a profile.
func (p *Profile) PublicCard() ProfileCard {
	return ProfileCard{
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		PinRequired: p.PinEnabled,
	}
}
