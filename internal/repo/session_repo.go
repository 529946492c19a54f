// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the SQLite-backed session store, the
// default backend for the delivery pipeline.
//
// Error semantics:
//   - When a session is not found, methods return ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Locking: TryLock/Unlock implement the store-level mutex that is the sole
// idempotency guard for deliveries. TryLock is a single conditional UPDATE
// (`locked = 0 → 1`), so two concurrent attempts on the same session yield
// exactly one success regardless of interleaving.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// SessionRepo is the GORM-backed session store.
type SessionRepo struct {
	DB *gorm.DB
}

// NewSessionRepo constructs a SessionRepo over the given handle.
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{DB: db}
}

// Create inserts a new session row. When the session carries no ID, a UUID
// is assigned. The generated ID is returned.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.State == "" {
		s.State = domain.StatePending
	}
	s.CreatedAt = time.Now().UTC()
	if err := r.DB.WithContext(ctx).Create(s).Error; err != nil {
		return "", err
	}
	return s.ID, nil
}

// Get fetches a session by ID, or domain.ErrSessionNotFound if missing.
// Expiry is not evaluated here; callers decide how to treat stale rows.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TryLock atomically acquires the per-session delivery lock. It succeeds
// iff the session exists and was unlocked; a false return has no side
// effect.
func (r *SessionRepo) TryLock(ctx context.Context, id string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND locked = ?", id, false).
		Update("locked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Unlock clears the delivery lock. Unlocking a missing or already-unlocked
// session is a no-op, which keeps deferred release safe on every exit path.
func (r *SessionRepo) Unlock(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Update("locked", false).Error
}

// SetState advances the session state. Writes are monotonic: a row is only
// updated when the stored state ranks strictly below the target, so a
// regression (e.g. delivered → processing) is silently refused.
func (r *SessionRepo) SetState(ctx context.Context, id string, state domain.SessionState) error {
	lower := lowerStates(state)
	if len(lower) == 0 {
		return nil
	}
	res := r.DB.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND state IN ?", id, lower).
		Update("state", state)
	return res.Error
}

// SetDelivered marks the session terminally delivered and records the
// delivered file reference.
func (r *SessionRepo) SetDelivered(ctx context.Context, id, fileID string) error {
	res := r.DB.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND state <> ?", id, domain.StateDelivered).
		Updates(map[string]any{
			"state":          domain.StateDelivered,
			"delivered_file": fileID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// SetSource records the chosen source on the session.
func (r *SessionRepo) SetSource(ctx context.Context, id, source string) error {
	return r.DB.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Update("source", source).Error
}

// SetQuality records the chosen quality on the session.
func (r *SessionRepo) SetQuality(ctx context.Context, id, quality string) error {
	return r.DB.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Update("quality", quality).Error
}

// ExtendExpiry re-sets the session's expiry deadline. Extending a missing
// session is a no-op, not an error.
func (r *SessionRepo) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	return r.DB.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Update("expires_at", until.UTC()).Error
}

// lowerStates lists the states that rank strictly below the target, i.e.
// the states from which a transition to target is legal.
func lowerStates(target domain.SessionState) []domain.SessionState {
	all := []domain.SessionState{domain.StatePending, domain.StateProcessing, domain.StateDelivered}
	out := make([]domain.SessionState, 0, len(all))
	for _, s := range all {
		if s.Rank() < target.Rank() {
			out = append(out, s)
		}
	}
	return out
}
