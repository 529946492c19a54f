package domain

import "time"

// UserStatus records a user's entitlement flags. Absence of a row means
// the user is neither verified nor premium (fail-closed).
type UserStatus struct {
	UserID    int64     `json:"user_id" gorm:"primaryKey"`
	Verified  bool      `json:"verified" gorm:"not null;default:false"`
	Premium   bool      `json:"premium"  gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserStatus.
func (UserStatus) TableName() string { return "user_status" }
