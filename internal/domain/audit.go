package domain

import "time"

// DeliveryLogEntry is an append-only audit record of one delivery outcome.
// Entries are write-once: the application never updates or deletes them.
type DeliveryLogEntry struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:char(36);not null;index"`
	UserID    int64     `json:"user_id"    gorm:"not null;index"`
	Delivered bool      `json:"delivered"  gorm:"not null;default:false"`
	Blocked   bool      `json:"blocked"    gorm:"not null;default:false"`
	Reason    string    `json:"reason,omitempty" gorm:"type:varchar(255)"`
	FileID    string    `json:"file,omitempty"   gorm:"type:varchar(128)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for DeliveryLogEntry.
func (DeliveryLogEntry) TableName() string { return "delivery_log" }
