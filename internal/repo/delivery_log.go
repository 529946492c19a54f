// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only delivery audit log.
//
// Entries are write-once: nothing in the application updates or deletes
// them after AppendDeliveryLog returns.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// AppendDeliveryLog inserts one audit record. The entry ID is a generated
// UUID and CreatedAt is set to UTC.
func AppendDeliveryLog(ctx context.Context, db *gorm.DB, entry *domain.DeliveryLogEntry) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(entry).Error
}

// ListDeliveryLog returns all audit entries for a session, oldest first.
func ListDeliveryLog(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.DeliveryLogEntry, error) {
	var out []domain.DeliveryLogEntry
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// CountDelivered returns how many delivered=true entries exist for a
// session. Exactly-once delivery implies this never exceeds 1.
func CountDelivered(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.DeliveryLogEntry{}).
		Where("session_id = ? AND delivered = ?", sessionID, true).
		Count(&total).Error
	return total, err
}
