/**
 * @description
 * This file contains the core business logic for the profile-service. The `Service`
 * struct orchestrates the PIN access gate, coordinating the identity resolver
 * (repository), the rate limiter, the hasher, and the audit recorder to produce
 * an allow/deny decision and release payment methods.
 *
 * Key features:
 * - Implements the gate's decision ladder: format check, identity resolution,
 *   rate limiting, optional hash verification, audit write.
 * - Format and rate-limit rejections never touch the audit trail; only
 *   attempts that reach the hashing stage are recorded.
 * - Audit failures are logged but never convert a decision into an error.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For audit record IDs.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For publishing attempt events to the message broker.
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
	"github.com/paym/profile-service/internal/store"
	"github.com/paym/profile-service/pkg/rabbitmq"
)

const (
	DefaultPinMaxAttempts   = 5
	DefaultPinAttemptWindow = 60 * time.Second
)

var (
	ErrInvalidPinFormat = errors.New("invalid pin format")
	ErrInvalidPin       = errors.New("invalid pin")
	ErrTooManyAttempts  = errors.New("too many pin attempts")
)

// RateLimitedError carries the retry hint alongside the ErrTooManyAttempts
// sentinel so handlers can set a Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many pin attempts, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrTooManyAttempts }

// Service provides the core business logic for the profile-service.
type Service struct {
	repo          store.Repository
	limiter       RateLimiter
	eventProducer rabbitmq.Publisher
	pinSalt       string
	shareBaseURL  string
	now           func() time.Time
}

// NewService creates a new profile service instance.
func NewService(repo store.Repository, limiter RateLimiter, producer rabbitmq.Publisher, pinSalt string, shareBaseURL string) *Service {
	return &Service{
		repo:          repo,
		limiter:       limiter,
		eventProducer: producer,
		pinSalt:       pinSalt,
		shareBaseURL:  strings.TrimSuffix(strings.TrimSpace(shareBaseURL), "/"),
		now:           time.Now,
	}
}

// VerifyProfilePin runs one pass of the access gate and, on success, returns
// the profile's active payment methods. Every call is independently
// authorized; no session or token comes out of this.
//
// Decision order matters and is load-bearing:
//  1. malformed PIN: rejected before anything else, no rate-limit cost, no audit
//  2. unknown username: store.ErrProfileNotFound, no rate-limit entry, no audit
//  3. exhausted attempts: ErrTooManyAttempts, no hash comparison, no audit
//  4. PIN protection disabled: short-circuit allow, no hashing, no audit
//  5. hash comparison: audited regardless of outcome
func (s *Service) VerifyProfilePin(ctx context.Context, req domain.VerifyPinRequest, clientIP, userAgent string) (*domain.PinGateResult, error) {
	if !ValidPinFormat(req.Pin) {
		return nil, ErrInvalidPinFormat
	}

	profile, err := s.repo.FindProfileByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	key := clientIP + ":" + strings.ToLower(strings.TrimSpace(req.Username))
	allowed, retryAfter, err := s.limiter.Allow(ctx, key, s.now())
	if err != nil {
		return nil, fmt.Errorf("rate limiter unavailable: %w", err)
	}
	if !allowed {
		return nil, &RateLimitedError{RetryAfter: retryAfter}
	}

	if !profile.PinEnabled {
		methods, err := s.repo.ListActivePaymentMethods(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payment methods: %w", err)
		}
		return &domain.PinGateResult{PinRequired: false, PaymentMethods: methods}, nil
	}

	ok := VerifyPin(req.Pin, s.pinSalt, profile.PinHash)
	s.recordPinAttempt(ctx, profile, ok, clientIP, userAgent)

	if !ok {
		return nil, ErrInvalidPin
	}

	methods, err := s.repo.ListActivePaymentMethods(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment methods: %w", err)
	}
	return &domain.PinGateResult{PinRequired: true, PaymentMethods: methods}, nil
}

// recordPinAttempt appends the audit record and publishes the attempt event.
// Both writes are non-fatal: a lost audit row is logged, never surfaced to the
// visitor, and never changes the gate's decision.
func (s *Service) recordPinAttempt(ctx context.Context, profile *domain.Profile, success bool, clientIP, userAgent string) {
	attempt := &domain.PinAttempt{
		ID:        uuid.New(),
		ProfileID: profile.ID,
		Success:   success,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		CreatedAt: s.now(),
	}
	if err := s.repo.InsertPinAttempt(ctx, attempt); err != nil {
		log.Printf("level=error component=audit msg=\"pin attempt write failed\" profile_id=%s success=%t err=%v", profile.ID, success, err)
	}

	if s.eventProducer == nil {
		return
	}
	event := rabbitmq.PinAttemptEvent{
		ProfileID: profile.ID,
		Username:  profile.Username,
		Success:   success,
		ClientIP:  clientIP,
		Timestamp: attempt.CreatedAt,
	}
	if err := s.eventProducer.PublishPinAttemptEvent(ctx, event); err != nil {
		log.Printf("level=warn component=audit msg=\"pin attempt event publish failed\" profile_id=%s err=%v", profile.ID, err)
	}
}

// GetPublicProfile returns the unauthenticated profile card for a username.
func (s *Service) GetPublicProfile(ctx context.Context, username string) (*domain.ProfileCard, error) {
	profile, err := s.repo.FindProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	card := profile.PublicCard()
	return &card, nil
}

// ResolveProfileID converts a Clerk user id from a validated JWT into the
// internal profile UUID used by the repositories.
func (s *Service) ResolveProfileID(ctx context.Context, clerkUserID string) (uuid.UUID, error) {
	return s.repo.FindProfileIDByClerkUserID(ctx, clerkUserID)
}

// ListPinAttempts returns the recent audit records for the caller's profile.
func (s *Service) ListPinAttempts(ctx context.Context, profileID uuid.UUID, limit int) ([]domain.PinAttempt, error) {
	return s.repo.ListPinAttempts(ctx, profileID, limit)
}
