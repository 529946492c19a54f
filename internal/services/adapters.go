package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/filmrelay/go-movie-backend/internal/domain"
	"github.com/filmrelay/go-movie-backend/internal/repo"
)

// GormEntitlements answers the entitlement gates from the user status table.
type GormEntitlements struct {
	DB *gorm.DB
}

func (g GormEntitlements) IsVerified(ctx context.Context, userID int64) (bool, error) {
	return repo.IsUserVerified(ctx, g.DB, userID)
}

func (g GormEntitlements) IsPremium(ctx context.Context, userID int64) (bool, error) {
	return repo.IsUserPremium(ctx, g.DB, userID)
}

// GormFileLookup resolves selections against the file records table.
type GormFileLookup struct {
	DB *gorm.DB
}

func (g GormFileLookup) Lookup(ctx context.Context, sel domain.Selection) (*domain.FileRecord, error) {
	return repo.LookupFile(ctx, g.DB, sel)
}

// GormAuditLog appends to the delivery log table.
type GormAuditLog struct {
	DB *gorm.DB
}

func (g GormAuditLog) Append(ctx context.Context, entry *domain.DeliveryLogEntry) error {
	return repo.AppendDeliveryLog(ctx, g.DB, entry)
}

// entCacheTTL bounds how stale a cached entitlement answer may be.
const entCacheTTL = time.Minute

type entEntry struct {
	verified, premium bool
	fetched           time.Time
}

// CachedEntitlements memoizes entitlement lookups per user for a short
// window to keep the hot callback path off the database. Errors are never
// cached: a failed lookup stays a failed lookup, which the orchestrator
// treats as "not entitled".
type CachedEntitlements struct {
	Inner Entitlements

	mu    sync.Mutex
	cache map[int64]entEntry
	now   func() time.Time // test seam
}

// NewCachedEntitlements wraps an Entitlements source with the cache.
func NewCachedEntitlements(inner Entitlements) *CachedEntitlements {
	return &CachedEntitlements{Inner: inner, cache: make(map[int64]entEntry), now: time.Now}
}

func (c *CachedEntitlements) IsVerified(ctx context.Context, userID int64) (bool, error) {
	e, err := c.lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	return e.verified, nil
}

func (c *CachedEntitlements) IsPremium(ctx context.Context, userID int64) (bool, error) {
	e, err := c.lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	return e.premium, nil
}

// Invalidate drops a user's cached answer (after an admin flips flags).
func (c *CachedEntitlements) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, userID)
}

func (c *CachedEntitlements) lookup(ctx context.Context, userID int64) (entEntry, error) {
	c.mu.Lock()
	if e, ok := c.cache[userID]; ok && c.now().Sub(e.fetched) < entCacheTTL {
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	verified, err := c.Inner.IsVerified(ctx, userID)
	if err != nil {
		return entEntry{}, err
	}
	premium, err := c.Inner.IsPremium(ctx, userID)
	if err != nil {
		return entEntry{}, err
	}
	e := entEntry{verified: verified, premium: premium, fetched: c.now()}
	c.mu.Lock()
	c.cache[userID] = e
	c.mu.Unlock()
	return e, nil
}
