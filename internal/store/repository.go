/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the profile-service. By defining an interface,
 * we decouple the application's business logic from the specific database implementation
 * (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation and handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paym/profile-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Profile methods
	// Resolve internal UUID from Clerk user id (e.g., "user_abc123").
	FindProfileIDByClerkUserID(ctx context.Context, clerkUserID string) (uuid.UUID, error)
	// Case-insensitive lookup; at most one profile matches (uniqueness is
	// enforced by a lower(username) index).
	FindProfileByUsername(ctx context.Context, username string) (*domain.Profile, error)
	FindProfileByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error)

	// Payment method reads. Only active methods are ever released.
	ListActivePaymentMethods(ctx context.Context, profileID uuid.UUID) ([]domain.PaymentMethod, error)

	// PIN attempt audit trail. Append-only: records are never updated or deleted.
	InsertPinAttempt(ctx context.Context, attempt *domain.PinAttempt) error
	ListPinAttempts(ctx context.Context, profileID uuid.UUID, limit int) ([]domain.PinAttempt, error)

	// Paym methods
	CreatePaym(ctx context.Context, paym *domain.Paym) error
	FindPaymBySlug(ctx context.Context, slug string) (*domain.Paym, error)
	ListPaymsByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Paym, error)
	DeletePaym(ctx context.Context, paymID uuid.UUID, profileID uuid.UUID) (bool, error)
	// ExpireDuePayms flips every active paym whose deadline has passed and
	// returns the flipped rows so expiry events can be published.
	ExpireDuePayms(ctx context.Context, now time.Time) ([]domain.Paym, error)
}
