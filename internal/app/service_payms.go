/**
 * @description
 * Paym business logic: creating, listing, and deleting shareable payment
 * requests, serving the public view by slug, and the scheduled expiry sweep.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: Paym IDs and slug material.
 * - internal/domain, internal/store, pkg/rabbitmq.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paym/profile-service/internal/domain"
	"github.com/paym/profile-service/pkg/rabbitmq"
)

var ErrPaymExpired = errors.New("paym expired")

const paymSlugLength = 10

// newPaymSlug derives a short URL-safe slug from a fresh UUID. Collisions are
// caught by the unique index on payms.slug.
func newPaymSlug() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:paymSlugLength]
}

// CreatePaym creates a payment request for the owner's profile. Field
// validation (positive amount, sane expiry) happens at the handler; here we
// only assemble and persist the record.
func (s *Service) CreatePaym(ctx context.Context, profileID uuid.UUID, req domain.CreatePaymRequest) (*domain.CreatePaymResponse, error) {
	now := s.now()
	paym := &domain.Paym{
		ID:          uuid.New(),
		ProfileID:   profileID,
		Slug:        newPaymSlug(),
		AmountPaise: req.AmountPaise,
		Note:        strings.TrimSpace(req.Note),
		Status:      domain.PaymStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.ExpiryInMinutes > 0 {
		expiresAt := now.Add(time.Duration(req.ExpiryInMinutes) * time.Minute)
		paym.ExpiresAt = &expiresAt
	}

	if err := s.repo.CreatePaym(ctx, paym); err != nil {
		return nil, fmt.Errorf("failed to create paym: %w", err)
	}

	return &domain.CreatePaymResponse{
		Paym:     paym,
		ShareURL: fmt.Sprintf("%s/p/%s", s.shareBaseURL, paym.Slug),
	}, nil
}

// ListPayms returns all payms created by the profile, newest first.
func (s *Service) ListPayms(ctx context.Context, profileID uuid.UUID) ([]domain.Paym, error) {
	return s.repo.ListPaymsByProfile(ctx, profileID)
}

// DeletePaym removes a paym owned by the profile. Returns false when the paym
// does not exist or belongs to someone else.
func (s *Service) DeletePaym(ctx context.Context, profileID uuid.UUID, paymID uuid.UUID) (bool, error) {
	return s.repo.DeletePaym(ctx, paymID, profileID)
}

// GetPaymBySlug serves the public share view. Expiry is checked against the
// clock as well as the stored status, so a paym past its deadline is gone even
// before the sweeper has run.
func (s *Service) GetPaymBySlug(ctx context.Context, slug string) (*domain.PaymView, error) {
	paym, err := s.repo.FindPaymBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if paym.Expired(s.now()) {
		return nil, ErrPaymExpired
	}

	creator, err := s.repo.FindProfileByID(ctx, paym.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paym creator: %w", err)
	}

	return &domain.PaymView{
		Slug:        paym.Slug,
		AmountPaise: paym.AmountPaise,
		Note:        paym.Note,
		ExpiresAt:   paym.ExpiresAt,
		Creator:     creator.PublicCard(),
	}, nil
}

// SweepExpiredPayms flips due payms to expired and publishes one event per
// flipped row. Meant to run from the cron scheduler; errors are logged and
// the next run retries whatever is still due.
func (s *Service) SweepExpiredPayms(ctx context.Context) {
	expired, err := s.repo.ExpireDuePayms(ctx, s.now())
	if err != nil {
		log.Printf("level=error component=sweeper msg=\"paym expiry sweep failed\" err=%v", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	log.Printf("level=info component=sweeper msg=\"payms expired\" count=%d", len(expired))

	if s.eventProducer == nil {
		return
	}
	for _, p := range expired {
		event := rabbitmq.PaymExpiredEvent{
			PaymID:    p.ID,
			ProfileID: p.ProfileID,
			Slug:      p.Slug,
			Timestamp: s.now(),
		}
		if err := s.eventProducer.PublishPaymExpiredEvent(ctx, event); err != nil {
			log.Printf("level=warn component=sweeper msg=\"paym expired event publish failed\" paym_id=%s err=%v", p.ID, err)
		}
	}
}
