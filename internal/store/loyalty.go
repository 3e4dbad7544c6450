package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/models"
)

// LoyaltyStore keeps the loyalty settings in memory and owns user point
// writes. User writes are read-modify-write and serialised in-process.
type LoyaltyStore struct {
	repo     Repository
	notifier Notifier

	mu       sync.RWMutex
	settings *models.LoyaltySettings

	userMu sync.Mutex
}

// NewLoyaltyStore builds an unloaded store. notifier may be nil.
func NewLoyaltyStore(repo Repository, notifier Notifier) *LoyaltyStore {
	return &LoyaltyStore{repo: repo, notifier: notifier}
}

// Load fetches the settings row, creating it from defaults when missing.
func (s *LoyaltyStore) Load(ctx context.Context, defaults loyalty.Settings) error {
	row, err := s.repo.LoadLoyaltySettings(ctx)
	if errors.Is(err, ErrNotFound) {
		if err := defaults.Validate(); err != nil {
			return fmt.Errorf("default loyalty settings: %w", err)
		}
		row = &models.LoyaltySettings{}
		row.SetSettings(defaults)
		if err := s.repo.CreateLoyaltySettings(ctx, row); err != nil {
			return fmt.Errorf("create loyalty settings: %w", err)
		}
		log.Printf("[Loyalty] created loyalty settings %s", row.ID)
	} else if err != nil {
		return fmt.Errorf("load loyalty settings: %w", err)
	}

	s.mu.Lock()
	s.settings = row
	s.mu.Unlock()
	return nil
}

// Settings returns the current settings, or the defaults before Load.
func (s *LoyaltyStore) Settings() loyalty.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return loyalty.DefaultSettings()
	}
	return s.settings.Settings()
}

// SettingsPatch is a partial settings update. When both ratios are given,
// CurrencyPerPoint wins.
type SettingsPatch struct {
	CurrencyPerPoint  *float64 `json:"currencyPerPoint"`
	PointsPerCurrency *float64 `json:"pointsPerCurrency"`
	RewardPoints      *int     `json:"rewardPoints"`
	RewardValue       *float64 `json:"rewardValue"`
	SilverThreshold   *int     `json:"silverThreshold"`
	SilverDiscount    *float64 `json:"silverDiscount"`
	GoldThreshold     *int     `json:"goldThreshold"`
	GoldFreeDelivery  *bool    `json:"goldFreeDelivery"`
}

func (p SettingsPatch) apply(cur loyalty.Settings) (loyalty.Settings, error) {
	next := cur
	switch {
	case p.CurrencyPerPoint != nil:
		if err := next.SetCurrencyPerPoint(*p.CurrencyPerPoint); err != nil {
			return cur, fmt.Errorf("currencyPerPoint: %w", err)
		}
	case p.PointsPerCurrency != nil:
		if err := next.SetPointsPerCurrency(*p.PointsPerCurrency); err != nil {
			return cur, fmt.Errorf("pointsPerCurrency: %w", err)
		}
	}
	if p.RewardPoints != nil {
		next.RewardPoints = *p.RewardPoints
	}
	if p.RewardValue != nil {
		next.RewardValue = *p.RewardValue
	}
	if p.SilverThreshold != nil {
		next.SilverThreshold = *p.SilverThreshold
	}
	if p.SilverDiscount != nil {
		next.SilverDiscount = *p.SilverDiscount
	}
	if p.GoldThreshold != nil {
		next.GoldThreshold = *p.GoldThreshold
	}
	if p.GoldFreeDelivery != nil {
		next.GoldFreeDelivery = *p.GoldFreeDelivery
	}
	if err := next.Validate(); err != nil {
		return cur, err
	}
	return next, nil
}

// UpdateSettings applies patch locally, writes it, and restores the previous
// settings if the write fails.
func (s *LoyaltyStore) UpdateSettings(ctx context.Context, patch SettingsPatch) (loyalty.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return loyalty.Settings{}, ErrNotLoaded
	}

	prev := s.settings.Settings()
	next, err := patch.apply(prev)
	if err != nil {
		return loyalty.Settings{}, invalid(err.Error())
	}

	s.settings.SetSettings(next)
	if err := s.repo.MergeLoyaltySettings(ctx, s.settings.ID, s.settings.Columns()); err != nil {
		s.settings.SetSettings(prev)
		log.Printf("[Loyalty] settings update failed, local state reverted: %v", err)
		return loyalty.Settings{}, fmt.Errorf("save loyalty settings: %w", err)
	}
	return next, nil
}

// Member is a user's loyalty view.
type Member struct {
	UserID     uuid.UUID          `json:"userId"`
	State      loyalty.State      `json:"state"`
	Perks      loyalty.Perks      `json:"perks"`
	Redeemable loyalty.Redemption `json:"redeemable"`
}

func (s *LoyaltyStore) member(u *models.User) (Member, error) {
	level, err := loyalty.ParseTier(u.MembershipLevel)
	if err != nil {
		return Member{}, err
	}
	settings := s.Settings()
	return Member{
		UserID:     u.ID,
		State:      loyalty.State{Points: u.Points, Level: level},
		Perks:      loyalty.PerksFor(level, settings),
		Redeemable: loyalty.Redeemable(u.Points, settings),
	}, nil
}

// Member returns a user's state and perks.
func (s *LoyaltyStore) Member(ctx context.Context, userID uuid.UUID) (Member, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return Member{}, err
	}
	return s.member(u)
}

// ListUsers pages users ordered by points.
func (s *LoyaltyStore) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	return s.repo.ListUsers(ctx, search, limit, offset)
}

// AdjustPoints sets a user's balance on behalf of an administrator.
func (s *LoyaltyStore) AdjustPoints(ctx context.Context, userID uuid.UUID, points int) (Member, error) {
	if points < 0 {
		return Member{}, invalid(loyalty.ErrNegativePoints.Error())
	}
	return s.updateUser(ctx, userID, func(cur loyalty.State, settings loyalty.Settings) loyalty.State {
		return loyalty.ApplyManualAdjustment(cur, points, settings)
	})
}

// RecordOrder credits a completed order to a user.
func (s *LoyaltyStore) RecordOrder(ctx context.Context, userID uuid.UUID, total float64) (Member, error) {
	if total < 0 {
		return Member{}, invalid("order total cannot be negative")
	}
	return s.updateUser(ctx, userID, func(cur loyalty.State, settings loyalty.Settings) loyalty.State {
		return loyalty.RecordOrder(cur, total, settings)
	})
}

func (s *LoyaltyStore) updateUser(ctx context.Context, userID uuid.UUID, next func(loyalty.State, loyalty.Settings) loyalty.State) (Member, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return Member{}, err
	}
	level, err := loyalty.ParseTier(u.MembershipLevel)
	if err != nil {
		return Member{}, err
	}
	cur := loyalty.State{Points: u.Points, Level: level}
	updated := next(cur, s.Settings())

	if err := s.repo.UpdateUserLoyalty(ctx, userID, updated.Points, string(updated.Level)); err != nil {
		return Member{}, fmt.Errorf("save user loyalty: %w", err)
	}
	u.Points = updated.Points
	u.MembershipLevel = string(updated.Level)

	if updated.Level.Above(cur.Level) {
		log.Printf("[Loyalty] user %s promoted %s -> %s", u.ID, cur.Level, updated.Level)
		if s.notifier != nil {
			if err := s.notifier.NotifyTierPromotion(*u, cur.Level, updated.Level); err != nil {
				log.Printf("[Loyalty] promotion notification failed: %v", err)
			}
		}
	}
	return s.member(u)
}
