// Package services – SessionService
//
// This file implements SessionService, the lifecycle manager for delivery
// sessions. It owns the TTL policy: sessions are created with a deadline,
// every user interaction (choosing a source or quality) slides the deadline
// forward, and reads past the deadline are answered with ErrSessionExpired.
//
// The manager is backend-agnostic: it works against the SessionStore
// contract, which the SQLite repo and the Mongo/Redis stores all satisfy.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// DefaultSessionTTL is the idle lifetime of a session when no explicit TTL
// is configured.
const DefaultSessionTTL = 10 * time.Minute

// SessionStore is the persistence contract the lifecycle manager and the
// delivery orchestrator depend on. repo.SessionRepo, storage.MongoStore and
// storage.RedisStore all implement it.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) (string, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	TryLock(ctx context.Context, id string) (bool, error)
	Unlock(ctx context.Context, id string) error
	SetState(ctx context.Context, id string, state domain.SessionState) error
	SetDelivered(ctx context.Context, id, fileID string) error
	SetSource(ctx context.Context, id, source string) error
	SetQuality(ctx context.Context, id, quality string) error
	ExtendExpiry(ctx context.Context, id string, until time.Time) error
}

// SessionService manages session creation, expiry, and selection updates.
type SessionService struct {
	Store SessionStore
	TTL   time.Duration

	now func() time.Time // test seam
}

// NewSessionService constructs a SessionService. A non-positive TTL falls
// back to DefaultSessionTTL.
func NewSessionService(store SessionStore, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{Store: store, TTL: ttl, now: time.Now}
}

// Start creates a pending session for the user's movie pick and returns it
// with its generated ID and expiry populated.
func (s *SessionService) Start(ctx context.Context, userID int64, movieID, title string, page int) (*domain.Session, error) {
	if page < 1 {
		page = 1
	}
	sess := &domain.Session{
		UserID:    userID,
		MovieID:   movieID,
		Title:     title,
		Page:      page,
		State:     domain.StatePending,
		ExpiresAt: s.now().UTC().Add(s.TTL),
	}
	if _, err := s.Store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get fetches a live session. Missing and expired sessions are equivalent
// to the caller: both return ErrSessionExpired.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.Store.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(sess) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Expired reports whether the session's deadline has passed. A zero expiry
// counts as expired, so a malformed row can never stay usable forever.
func (s *SessionService) Expired(sess *domain.Session) bool {
	if sess.ExpiresAt.IsZero() {
		return true
	}
	return !s.now().UTC().Before(sess.ExpiresAt)
}

// ChooseSource records the user's source pick and slides the expiry window.
func (s *SessionService) ChooseSource(ctx context.Context, id, source string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Store.SetSource(ctx, id, source); err != nil {
		return err
	}
	return s.Extend(ctx, id)
}

// ChooseQuality records the user's quality pick and slides the expiry window.
func (s *SessionService) ChooseQuality(ctx context.Context, id, quality string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Store.SetQuality(ctx, id, quality); err != nil {
		return err
	}
	return s.Extend(ctx, id)
}

// Extend pushes the session's deadline to now+TTL.
func (s *SessionService) Extend(ctx context.Context, id string) error {
	return s.Store.ExtendExpiry(ctx, id, s.now().UTC().Add(s.TTL))
}
