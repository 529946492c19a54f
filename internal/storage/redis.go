package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// lockTTL bounds how long a delivery lock can outlive its owner. The
// orchestrator always unlocks on exit; the TTL only matters if the
// process dies mid-delivery, in which case the session must not stay
// locked forever.
const lockTTL = 2 * time.Minute

// keyTTLSlack keeps the session document around slightly past its logical
// expiry so "expired" and "gone" remain distinguishable in logs.
const keyTTLSlack = time.Minute

// RedisStore is the Redis-backed session store. Sessions are stored as
// JSON under session:<id>; the delivery lock is a separate
// session:<id>:lock key acquired with SET NX.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("REDIS_ADDR is empty")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing client (used by tests).
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Close releases the underlying client.
func (r *RedisStore) Close() error { return r.rdb.Close() }

func sessionKey(id string) string { return "session:" + id }
func lockKey(id string) string    { return "session:" + id + ":lock" }

// Create stores the session as JSON with a TTL derived from its expiry.
func (r *RedisStore) Create(ctx context.Context, s *domain.Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.State == "" {
		s.State = domain.StatePending
	}
	s.CreatedAt = time.Now().UTC()
	if err := r.write(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Get fetches a session by ID, or domain.ErrSessionNotFound.
func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// TryLock acquires the delivery lock with SET NX: exactly one of any
// number of concurrent attempts succeeds. The lock fails when the session
// itself is gone.
func (r *RedisStore) TryLock(ctx context.Context, id string) (bool, error) {
	exists, err := r.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}
	return r.rdb.SetNX(ctx, lockKey(id), "1", lockTTL).Result()
}

// Unlock releases the delivery lock; releasing a missing lock is a no-op.
func (r *RedisStore) Unlock(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, lockKey(id)).Err()
}

// SetState advances the state monotonically via read-modify-write.
// The single-writer guarantee comes from the delivery lock: only the
// lock holder mutates state, so no CAS loop is needed here.
func (r *RedisStore) SetState(ctx context.Context, id string, state domain.SessionState) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if s.State.Rank() >= state.Rank() {
		return nil
	}
	s.State = state
	return r.write(ctx, s)
}

// SetDelivered marks the session terminally delivered.
func (r *RedisStore) SetDelivered(ctx context.Context, id, fileID string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.State == domain.StateDelivered {
		return nil
	}
	s.State = domain.StateDelivered
	s.DeliveredFile = fileID
	return r.write(ctx, s)
}

// SetSource records the chosen source.
func (r *RedisStore) SetSource(ctx context.Context, id, source string) error {
	return r.mutate(ctx, id, func(s *domain.Session) { s.Source = source })
}

// SetQuality records the chosen quality.
func (r *RedisStore) SetQuality(ctx context.Context, id, quality string) error {
	return r.mutate(ctx, id, func(s *domain.Session) { s.Quality = quality })
}

// ExtendExpiry re-sets the logical expiry and the key TTL together.
func (r *RedisStore) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	return r.mutate(ctx, id, func(s *domain.Session) { s.ExpiresAt = until.UTC() })
}

// mutate applies fn to the stored session and writes it back. A missing
// session is a no-op.
func (r *RedisStore) mutate(ctx context.Context, id string, fn func(*domain.Session)) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	fn(s)
	return r.write(ctx, s)
}

func (r *RedisStore) write(ctx context.Context, s *domain.Session) error {
	s.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt) + keyTTLSlack
	if ttl <= 0 {
		ttl = keyTTLSlack
	}
	return r.rdb.Set(ctx, sessionKey(s.ID), raw, ttl).Err()
}
