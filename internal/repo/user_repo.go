// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the entitlement lookups backing the
// verification and premium gates.
//
// Both predicates are fail-closed: a missing row (or any read error at the
// call site) means "not entitled".
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// IsUserVerified reports whether the user has completed verification.
// Absence of a status row counts as not verified.
func IsUserVerified(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var st domain.UserStatus
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.Verified, nil
}

// IsUserPremium reports whether the user holds a premium entitlement.
// Absence of a status row counts as not premium.
func IsUserPremium(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var st domain.UserStatus
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.Premium, nil
}

// SetUserStatus upserts a user's entitlement flags (admin/seed path).
func SetUserStatus(ctx context.Context, db *gorm.DB, userID int64, verified, premium bool) error {
	st := domain.UserStatus{UserID: userID, Verified: verified, Premium: premium}
	return db.WithContext(ctx).Save(&st).Error
}
