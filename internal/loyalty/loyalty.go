// Package loyalty computes membership tiers, point accrual and checkout perks
// from the store's loyalty settings.
package loyalty

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Tier is a customer membership level.
type Tier string

const (
	Bronze Tier = "bronze"
	Silver Tier = "silver"
	Gold   Tier = "gold"
)

var (
	// ErrInvalidRatio is returned when a conversion ratio is not a positive finite number.
	ErrInvalidRatio = errors.New("ratio must be a positive number")
	// ErrInvalidTier is returned for unknown membership levels.
	ErrInvalidTier = errors.New("unknown membership level")
	// ErrNegativePoints is returned when a point balance would go below zero.
	ErrNegativePoints = errors.New("points cannot be negative")
)

// ParseTier normalises a stored membership level. Empty means bronze.
func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(value))) {
	case "", Bronze:
		return Bronze, nil
	case Silver:
		return Silver, nil
	case Gold:
		return Gold, nil
	}
	return "", ErrInvalidTier
}

func (t Tier) rank() int {
	switch t {
	case Gold:
		return 2
	case Silver:
		return 1
	}
	return 0
}

// Above reports whether t ranks higher than other.
func (t Tier) Above(other Tier) bool {
	return t.rank() > other.rank()
}

// Settings are the store-wide loyalty parameters.
type Settings struct {
	CurrencyPerPoint  float64 `json:"currencyPerPoint" yaml:"currencyPerPoint"`
	PointsPerCurrency float64 `json:"pointsPerCurrency" yaml:"pointsPerCurrency"`
	RewardPoints      int     `json:"rewardPoints" yaml:"rewardPoints"`
	RewardValue       float64 `json:"rewardValue" yaml:"rewardValue"`
	SilverThreshold   int     `json:"silverThreshold" yaml:"silverThreshold"`
	SilverDiscount    float64 `json:"silverDiscount" yaml:"silverDiscount"`
	GoldThreshold     int     `json:"goldThreshold" yaml:"goldThreshold"`
	GoldFreeDelivery  bool    `json:"goldFreeDelivery" yaml:"goldFreeDelivery"`
}

// DefaultSettings is used until an administrator saves settings.
func DefaultSettings() Settings {
	return Settings{
		CurrencyPerPoint:  10,
		PointsPerCurrency: 0.1,
		RewardPoints:      100,
		RewardValue:       10,
		SilverThreshold:   500,
		SilverDiscount:    5,
		GoldThreshold:     1500,
		GoldFreeDelivery:  true,
	}
}

func validRatio(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// SetCurrencyPerPoint updates the spend needed per point and recomputes its reciprocal.
func (s *Settings) SetCurrencyPerPoint(v float64) error {
	if !validRatio(v) {
		return ErrInvalidRatio
	}
	s.CurrencyPerPoint = v
	s.PointsPerCurrency = 1 / v
	return nil
}

// SetPointsPerCurrency updates points earned per currency unit and recomputes its reciprocal.
func (s *Settings) SetPointsPerCurrency(v float64) error {
	if !validRatio(v) {
		return ErrInvalidRatio
	}
	s.PointsPerCurrency = v
	s.CurrencyPerPoint = 1 / v
	return nil
}

// Validate checks the settings before they are persisted.
func (s Settings) Validate() error {
	if !validRatio(s.CurrencyPerPoint) {
		return fmt.Errorf("currencyPerPoint: %w", ErrInvalidRatio)
	}
	if s.SilverThreshold < 0 || s.GoldThreshold < 0 {
		return errors.New("tier thresholds cannot be negative")
	}
	if s.GoldThreshold < s.SilverThreshold {
		return errors.New("goldThreshold must be greater than or equal to silverThreshold")
	}
	if s.SilverDiscount < 0 || s.SilverDiscount > 100 {
		return errors.New("silverDiscount must be between 0 and 100")
	}
	if s.RewardPoints < 0 || s.RewardValue < 0 {
		return errors.New("reward points and value cannot be negative")
	}
	if s.RewardValue > 0 && s.RewardPoints == 0 {
		return errors.New("rewardPoints must be positive when rewardValue is set")
	}
	return nil
}

// TierForPoints is the automatic tier computation.
func TierForPoints(points int, s Settings) Tier {
	if points >= s.GoldThreshold {
		return Gold
	}
	if points >= s.SilverThreshold {
		return Silver
	}
	return Bronze
}

// State is the per-customer loyalty record.
type State struct {
	Points int  `json:"points"`
	Level  Tier `json:"membershipLevel"`
}

// ApplyManualAdjustment sets a new balance on behalf of an administrator.
//
// A Gold member keeps Gold even when the new balance computes lower.
// Silver members are not protected and can drop to Bronze. Product has not
// confirmed whether the asymmetry is intended; keep it until they do.
func ApplyManualAdjustment(current State, newPoints int, s Settings) State {
	level := TierForPoints(newPoints, s)
	if current.Level == Gold && level != Gold {
		level = Gold
	}
	return State{Points: newPoints, Level: level}
}

// PointsForOrder is the number of points a completed order earns.
func PointsForOrder(total float64, s Settings) int {
	if total <= 0 || !validRatio(s.PointsPerCurrency) {
		return 0
	}
	// Absorb float noise such as 100*0.1 = 10.000000000000002 or 9.999999999.
	return int(math.Floor(total*s.PointsPerCurrency + 1e-9))
}

// RecordOrder credits a completed order and recomputes the tier automatically.
func RecordOrder(current State, total float64, s Settings) State {
	points := current.Points + PointsForOrder(total, s)
	return State{Points: points, Level: TierForPoints(points, s)}
}

// Redemption describes how many rewards a balance can buy.
type Redemption struct {
	Units       int     `json:"units"`
	PointsSpent int     `json:"pointsSpent"`
	Value       float64 `json:"value"`
}

// Redeemable returns the rewards available for points.
func Redeemable(points int, s Settings) Redemption {
	if s.RewardPoints <= 0 || points <= 0 {
		return Redemption{}
	}
	units := points / s.RewardPoints
	return Redemption{
		Units:       units,
		PointsSpent: units * s.RewardPoints,
		Value:       float64(units) * s.RewardValue,
	}
}

// Perks are the checkout benefits of a tier.
type Perks struct {
	DiscountPercent float64 `json:"discountPercent"`
	FreeDelivery    bool    `json:"freeDelivery"`
}

// PerksFor returns the benefits of tier. Gold inherits the silver discount.
func PerksFor(t Tier, s Settings) Perks {
	switch t {
	case Gold:
		return Perks{DiscountPercent: s.SilverDiscount, FreeDelivery: s.GoldFreeDelivery}
	case Silver:
		return Perks{DiscountPercent: s.SilverDiscount}
	}
	return Perks{}
}
