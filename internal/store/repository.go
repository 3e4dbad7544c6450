// Package store owns the persisted store configuration: the store profile
// (zones, city fees, hours, overrides), the loyalty settings and per-user
// loyalty state. Reads are served from an in-memory snapshot; every edit is
// applied locally first and reverted if the merge write fails.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/models"
)

var (
	// ErrNotFound is returned when a record or list entry does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotLoaded is returned when an edit runs before Load.
	ErrNotLoaded = errors.New("store configuration not loaded")
)

// ValidationError wraps input that cannot be saved.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// Repository is the persistence boundary. Merge methods only touch the
// given columns.
type Repository interface {
	LoadProfile(ctx context.Context) (*models.StoreProfile, error)
	CreateProfile(ctx context.Context, p *models.StoreProfile) error
	MergeProfile(ctx context.Context, id uuid.UUID, columns map[string]any) error

	LoadLoyaltySettings(ctx context.Context) (*models.LoyaltySettings, error)
	CreateLoyaltySettings(ctx context.Context, s *models.LoyaltySettings) error
	MergeLoyaltySettings(ctx context.Context, id uuid.UUID, columns map[string]any) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error)
	UpdateUserLoyalty(ctx context.Context, id uuid.UUID, points int, level string) error

	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, a *models.Admin) error
}

// Notifier receives operational events. Failures are logged, never returned
// to the editor.
type Notifier interface {
	NotifyStoreClosure(scope string, closed bool) error
	NotifyTierPromotion(user models.User, from, to loyalty.Tier) error
}
