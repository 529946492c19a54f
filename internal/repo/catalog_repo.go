// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the movie
// catalog and its file records.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Ranking of search results lives in
// the search package; services compose the two.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// ListMovies returns all catalog rows, ordered by title. The result feeds
// the in-memory title index; the catalog is expected to stay small enough
// to hold resident.
func ListMovies(ctx context.Context, db *gorm.DB) ([]domain.Movie, error) {
	var out []domain.Movie
	err := db.WithContext(ctx).Order("title asc").Find(&out).Error
	return out, err
}

// GetMovie fetches a single movie by ID, or ErrNotFound if missing.
func GetMovie(ctx context.Context, db *gorm.DB, id string) (*domain.Movie, error) {
	var m domain.Movie
	err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LookupFile resolves a (movie, source, quality) selection to its file
// record. It returns (nil, nil) when no record matches the selection —
// absence is an expected outcome, not an error.
func LookupFile(ctx context.Context, db *gorm.DB, sel domain.Selection) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	err := db.WithContext(ctx).
		Where("movie_id = ? AND source = ? AND quality = ?", sel.MovieID, sel.Source, sel.Quality).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertMovie inserts or updates a catalog row (used by seeding/indexing).
func UpsertMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	return db.WithContext(ctx).Save(m).Error
}

// UpsertFileRecord inserts or updates a file record (used by seeding/indexing).
func UpsertFileRecord(ctx context.Context, db *gorm.DB, rec *domain.FileRecord) error {
	return db.WithContext(ctx).Save(rec).Error
}
