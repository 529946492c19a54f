package domain

import (
	"strings"
	"time"
)

// Movie is one entry of the searchable catalog. Sources is stored as a
// comma-joined list (e.g. "webdl,bluray,hdrip") to keep the schema flat.
type Movie struct {
	ID        string    `json:"id"     gorm:"type:varchar(64);primaryKey"`
	Title     string    `json:"title"  gorm:"type:varchar(255);not null;index"`
	Year      int       `json:"year"`
	Poster    string    `json:"poster" gorm:"type:varchar(512)"`
	Sources   string    `json:"-"      gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Movie.
func (Movie) TableName() string { return "movies" }

// SourceList splits the stored comma-joined sources into a slice.
func (m *Movie) SourceList() []string {
	if m.Sources == "" {
		return nil
	}
	parts := strings.Split(m.Sources, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FileRecord is the resolved target of a delivery: the transport file
// reference plus display metadata. Records are immutable once indexed;
// the orchestrator only ever reads them.
type FileRecord struct {
	ID             string    `json:"id"      gorm:"type:varchar(128);primaryKey"`
	MovieID        string    `json:"movie_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_selection,priority:1"`
	Source         string    `json:"source"   gorm:"type:varchar(32);not null;uniqueIndex:ux_selection,priority:2"`
	Quality        string    `json:"quality"  gorm:"type:varchar(32);not null;uniqueIndex:ux_selection,priority:3"`
	TelegramFileID string    `json:"telegram_file_id" gorm:"type:varchar(256)"`
	FileName       string    `json:"file_name" gorm:"type:varchar(255);not null"`
	FileSize       int64     `json:"file_size"`
	Caption        string    `json:"caption"   gorm:"type:text"`
	MimeType       string    `json:"mime_type" gorm:"type:varchar(128)"`
	PremiumOnly    bool      `json:"premium_only" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for FileRecord.
func (FileRecord) TableName() string { return "file_records" }
