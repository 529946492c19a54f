// Package services – SearchService
//
// This file implements SearchService, which answers movie search queries
// from the in-memory title index. The catalog is loaded from the database
// once at construction; the index is immutable afterwards, so lookups are
// lock-free and deterministic.
//
// Admission is enforced here: each user gets a sliding-window quota of
// searches, and a throttled query returns ErrRateLimited without being
// counted against the quota.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/filmrelay/go-movie-backend/internal/domain"
	"github.com/filmrelay/go-movie-backend/internal/limiter"
	"github.com/filmrelay/go-movie-backend/internal/repo"
	"github.com/filmrelay/go-movie-backend/internal/search"
)

// DefaultPageSize is how many results one keyboard page shows.
const DefaultPageSize = 9

// titleStopwords are dropped from queries and titles before scoring.
var titleStopwords = []string{"the", "a", "an", "of"}

// SearchService serves ranked catalog matches for user queries.
type SearchService struct {
	DB       *gorm.DB
	Index    search.Index
	Limiter  *limiter.Limiter
	PageSize int

	movies map[string]domain.Movie
}

// NewSearchService loads the catalog from the database, builds the title
// index, and returns a ready service.
func NewSearchService(ctx context.Context, db *gorm.DB, lim *limiter.Limiter) (*SearchService, error) {
	movies, err := repo.ListMovies(ctx, db)
	if err != nil {
		return nil, err
	}
	svc := NewSearchServiceFromMovies(movies, lim)
	svc.DB = db
	return svc, nil
}

// NewSearchServiceFromMovies builds the service over an already-loaded
// catalog slice. The movie map backs ID lookups after a pick.
func NewSearchServiceFromMovies(movies []domain.Movie, lim *limiter.Limiter) *SearchService {
	entries := make([]search.Entry, 0, len(movies))
	byID := make(map[string]domain.Movie, len(movies))
	for _, m := range movies {
		entries = append(entries, search.Entry{ID: m.ID, Title: m.Title, Year: m.Year})
		byID[m.ID] = m
	}
	return &SearchService{
		Index:    search.NewIndex(entries, search.WithStopwords(titleStopwords)),
		Limiter:  lim,
		PageSize: DefaultPageSize,
		movies:   byID,
	}
}

// Search returns one page of ranked matches for the query. Page numbers
// start at 1; a page past the end returns an empty slice, not an error.
func (s *SearchService) Search(ctx context.Context, userID int64, query string, page int) ([]search.Result, error) {
	tr := otel.Tracer("services/SearchService")
	_, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if s.Limiter != nil && !s.Limiter.AllowSearch(userID) {
		return nil, ErrRateLimited
	}

	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	// Pull enough ranked entries to cover the requested page, then slice.
	all := s.Index.TopK(query, page*size)
	start := (page - 1) * size
	if start >= len(all) {
		return nil, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// Movie resolves a picked result ID back to its catalog row, or
// ErrMovieNotFound when the ID is unknown.
func (s *SearchService) Movie(id string) (*domain.Movie, error) {
	m, ok := s.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	return &m, nil
}
