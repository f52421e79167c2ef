/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to profiles, payment methods, PIN attempts, and payms.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paym/profile-service/internal/domain"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrPaymNotFound    = errors.New("paym not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindProfileIDByClerkUserID resolves the internal UUID from a Clerk user id.
func (r *PostgresRepository) FindProfileIDByClerkUserID(ctx context.Context, clerkUserID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, "SELECT id FROM profiles WHERE clerk_user_id = $1", clerkUserID).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, ErrProfileNotFound
		}
		return uuid.Nil, err
	}
	return id, nil
}

// FindProfileByUsername retrieves a profile by its public username. The match
// is case-insensitive; usernames are unique under lower(btrim(username)).
func (r *PostgresRepository) FindProfileByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	var profile domain.Profile
	query := `
		SELECT id, clerk_user_id, btrim(username), display_name, avatar_url, pin_enabled, pin_hash, created_at, updated_at
		FROM profiles
		WHERE lower(btrim(username)) = lower(btrim($1))`
	err := r.db.QueryRow(ctx, query, username).Scan(
		&profile.ID, &profile.ClerkUserID, &profile.Username, &profile.DisplayName,
		&profile.AvatarURL, &profile.PinEnabled, &profile.PinHash, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// FindProfileByID retrieves a profile by its internal ID.
func (r *PostgresRepository) FindProfileByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	var profile domain.Profile
	query := `
		SELECT id, clerk_user_id, btrim(username), display_name, avatar_url, pin_enabled, pin_hash, created_at, updated_at
		FROM profiles
		WHERE id = $1`
	err := r.db.QueryRow(ctx, query, profileID).Scan(
		&profile.ID, &profile.ClerkUserID, &profile.Username, &profile.DisplayName,
		&profile.AvatarURL, &profile.PinEnabled, &profile.PinHash, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// ListActivePaymentMethods returns the active payment methods for a profile,
// oldest first so the display order is stable.
func (r *PostgresRepository) ListActivePaymentMethods(ctx context.Context, profileID uuid.UUID) ([]domain.PaymentMethod, error) {
	query := `
		SELECT id, profile_id, kind, label, vpa, account_name, account_number, ifsc, network, last4, active, created_at
		FROM payment_methods
		WHERE profile_id = $1 AND active = TRUE
		ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []domain.PaymentMethod{}
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(
			&m.ID, &m.ProfileID, &m.Kind, &m.Label, &m.VPA, &m.AccountName,
			&m.AccountNumber, &m.IFSC, &m.Network, &m.Last4, &m.Active, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// InsertPinAttempt appends one audit record. The table has no UPDATE or DELETE
// path in this service.
func (r *PostgresRepository) InsertPinAttempt(ctx context.Context, attempt *domain.PinAttempt) error {
	query := `
		INSERT INTO pin_attempts (id, profile_id, success, client_ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		attempt.ID, attempt.ProfileID, attempt.Success, attempt.ClientIP, attempt.UserAgent, attempt.CreatedAt,
	)
	return err
}

// ListPinAttempts returns the most recent attempt records for a profile.
func (r *PostgresRepository) ListPinAttempts(ctx context.Context, profileID uuid.UUID, limit int) ([]domain.PinAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, profile_id, success, client_ip, user_agent, created_at
		FROM pin_attempts
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []domain.PinAttempt{}
	for rows.Next() {
		var a domain.PinAttempt
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.Success, &a.ClientIP, &a.UserAgent, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CreatePaym inserts a new paym row.
func (r *PostgresRepository) CreatePaym(ctx context.Context, paym *domain.Paym) error {
	query := `
		INSERT INTO payms (id, profile_id, slug, amount_paise, note, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		paym.ID, paym.ProfileID, paym.Slug, paym.AmountPaise, paym.Note,
		paym.Status, paym.ExpiresAt, paym.CreatedAt, paym.UpdatedAt,
	)
	return err
}

// FindPaymBySlug retrieves a paym by its public share slug.
func (r *PostgresRepository) FindPaymBySlug(ctx context.Context, slug string) (*domain.Paym, error) {
	var p domain.Paym
	query := `
		SELECT id, profile_id, slug, amount_paise, note, status, expires_at, created_at, updated_at
		FROM payms
		WHERE slug = $1`
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&p.ID, &p.ProfileID, &p.Slug, &p.AmountPaise, &p.Note, &p.Status, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPaymNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPaymsByProfile returns all payms created by a profile, newest first.
func (r *PostgresRepository) ListPaymsByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Paym, error) {
	query := `
		SELECT id, profile_id, slug, amount_paise, note, status, expires_at, created_at, updated_at
		FROM payms
		WHERE profile_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payms := []domain.Paym{}
	for rows.Next() {
		var p domain.Paym
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Slug, &p.AmountPaise, &p.Note, &p.Status, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payms = append(payms, p)
	}
	return payms, rows.Err()
}

// DeletePaym removes a paym owned by the given profile. Returns false when no
// matching row exists, so callers can distinguish 404 from success.
func (r *PostgresRepository) DeletePaym(ctx context.Context, paymID uuid.UUID, profileID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM payms WHERE id = $1 AND profile_id = $2", paymID, profileID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireDuePayms flips active payms whose deadline has passed and returns the
// flipped rows.
func (r *PostgresRepository) ExpireDuePayms(ctx context.Context, now time.Time) ([]domain.Paym, error) {
	query := `
		UPDATE payms
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING id, profile_id, slug, amount_paise, note, status, expires_at, created_at, updated_at`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expired := []domain.Paym{}
	for rows.Next() {
		var p domain.Paym
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Slug, &p.AmountPaise, &p.Note, &p.Status, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		expired = append(expired, p)
	}
	return expired, rows.Err()
}
