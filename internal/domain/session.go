// Package domain defines the persistence models for sessions, the movie
// catalog, user entitlements, and the delivery audit log. These types are
// mapped with GORM for the SQLite backend and reused as the wire-neutral
// representation by the Mongo and Redis session stores.
package domain

import "time"

// SessionState is the lifecycle state of a delivery session. States only
// move forward: pending → processing → delivered.
type SessionState string

const (
	StatePending    SessionState = "pending"
	StateProcessing SessionState = "processing"
	StateDelivered  SessionState = "delivered"
)

// Rank returns the monotonic ordering of a state. Unknown states rank
// below pending so a corrupt value can never overwrite a valid one.
func (s SessionState) Rank() int {
	switch s {
	case StatePending:
		return 1
	case StateProcessing:
		return 2
	case StateDelivered:
		return 3
	default:
		return 0
	}
}

// Session represents one user's in-progress movie request: the movie they
// picked, the source/quality they chose, and where the request stands in
// the delivery lifecycle.
//
// Invariants:
//   - ID is unique and immutable after creation.
//   - State is monotonic (pending → processing → delivered, no regressions).
//   - Locked is true for at most the duration of one delivery attempt.
//   - A session past ExpiresAt is treated as non-existent by consumers.
type Session struct {
	ID            string       `json:"session_id" gorm:"type:char(36);primaryKey"`
	UserID        int64        `json:"user_id"    gorm:"not null;index:idx_user_sessions"`
	MovieID       string       `json:"movie_id"   gorm:"type:varchar(64);not null"`
	Title         string       `json:"title"      gorm:"type:varchar(255)"`
	Page          int          `json:"page"       gorm:"not null;default:1"`
	Source        string       `json:"source,omitempty"  gorm:"type:varchar(32)"`
	Quality       string       `json:"quality,omitempty" gorm:"type:varchar(32)"`
	State         SessionState `json:"state"      gorm:"type:varchar(16);not null;default:'pending';check:state IN ('pending','processing','delivered')"`
	Locked        bool         `json:"locked"     gorm:"not null;default:false"`
	ExpiresAt     time.Time    `json:"expires_at" gorm:"not null;index"`
	DeliveredFile string       `json:"delivered_file,omitempty" gorm:"type:varchar(128)"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Selection is the (movie, source, quality) triple a session resolves to
// once the user has completed both choice steps.
type Selection struct {
	MovieID string
	Source  string
	Quality string
}

// Selection builds the file-lookup key from the session's chosen fields.
func (s *Session) Selection() Selection {
	return Selection{MovieID: s.MovieID, Source: s.Source, Quality: s.Quality}
}
