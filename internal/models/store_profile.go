package models

import (
	"gorm.io/datatypes"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/schedule"
)

// LatLng is a coordinate in decimal degrees.
type LatLng struct {
	Lat FlexFloat `json:"lat" yaml:"lat"`
	Lng FlexFloat `json:"lng" yaml:"lng"`
}

// DeliveryZone is a zone document as stored in the store profile.
//
// Current documents carry Center and Radius. Legacy documents carry the
// LatMin..LngMax bounding box, or a flat Lat/Lng center. Optional fields are
// omitted when nil so a write never replaces a stored value with null.
type DeliveryZone struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	Center            *LatLng    `json:"center,omitempty" yaml:"center,omitempty"`
	Radius            *FlexFloat `json:"radius,omitempty" yaml:"radius,omitempty"`
	Fee               FlexFloat  `json:"fee" yaml:"fee"`
	IsActive          bool       `json:"isActive" yaml:"isActive"`
	FreeDeliveryAbove *FlexFloat `json:"freeDeliveryAbove,omitempty" yaml:"freeDeliveryAbove,omitempty"`
	OfferLabel        Localized  `json:"offerLabel,omitempty" yaml:"offerLabel,omitempty"`

	Lat    *FlexFloat `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng    *FlexFloat `json:"lng,omitempty" yaml:"lng,omitempty"`
	LatMin *FlexFloat `json:"latMin,omitempty" yaml:"latMin,omitempty"`
	LatMax *FlexFloat `json:"latMax,omitempty" yaml:"latMax,omitempty"`
	LngMin *FlexFloat `json:"lngMin,omitempty" yaml:"lngMin,omitempty"`
	LngMax *FlexFloat `json:"lngMax,omitempty" yaml:"lngMax,omitempty"`
}

// Clone returns a deep copy so edits never alias the stored document.
func (z DeliveryZone) Clone() DeliveryZone {
	out := z
	if z.Center != nil {
		c := *z.Center
		out.Center = &c
	}
	out.Radius = cloneFlex(z.Radius)
	out.FreeDeliveryAbove = cloneFlex(z.FreeDeliveryAbove)
	out.Lat = cloneFlex(z.Lat)
	out.Lng = cloneFlex(z.Lng)
	out.LatMin = cloneFlex(z.LatMin)
	out.LatMax = cloneFlex(z.LatMax)
	out.LngMin = cloneFlex(z.LngMin)
	out.LngMax = cloneFlex(z.LngMax)
	out.OfferLabel = z.OfferLabel.Clone()
	return out
}

func cloneFlex(f *FlexFloat) *FlexFloat {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// CityFee is a flat delivery fee for a curated city name.
type CityFee struct {
	ID       string    `json:"id" yaml:"id"`
	CityName Localized `json:"cityName" yaml:"cityName"`
	Fee      FlexFloat `json:"fee" yaml:"fee"`
	IsActive bool      `json:"isActive" yaml:"isActive"`
}

// Clone returns a deep copy.
func (c CityFee) Clone() CityFee {
	out := c
	out.CityName = c.CityName.Clone()
	return out
}

// StoreProfile is the singleton row holding delivery and availability settings.
type StoreProfile struct {
	BaseModel
	DeliveryZones          datatypes.JSONSlice[DeliveryZone]        `gorm:"type:jsonb" json:"deliveryZones"`
	DeliveryCityFees       datatypes.JSONSlice[CityFee]             `gorm:"type:jsonb" json:"deliveryCityFees"`
	PickupHours            datatypes.JSONType[schedule.WeeklyHours] `gorm:"type:jsonb" json:"pickupHours"`
	DeliveryHours          datatypes.JSONType[schedule.WeeklyHours] `gorm:"type:jsonb" json:"deliveryHours"`
	IsManualClosed         bool                                     `json:"isManualClosed"`
	IsDeliveryManualClosed bool                                     `json:"isDeliveryManualClosed"`
	PaymentMethodsEnabled  datatypes.JSONMap                        `gorm:"type:jsonb" json:"paymentMethodsEnabled"`
	MinimumOrderAmount     float64                                  `json:"minimumOrderAmount"`
}

// Column names used for merge writes.
const (
	ColumnDeliveryZones          = "delivery_zones"
	ColumnDeliveryCityFees       = "delivery_city_fees"
	ColumnPickupHours            = "pickup_hours"
	ColumnDeliveryHours          = "delivery_hours"
	ColumnIsManualClosed         = "is_manual_closed"
	ColumnIsDeliveryManualClosed = "is_delivery_manual_closed"
	ColumnPaymentMethodsEnabled  = "payment_methods_enabled"
	ColumnMinimumOrderAmount     = "minimum_order_amount"
)

// Availability builds the schedule view of the profile.
func (p *StoreProfile) Availability() schedule.Availability {
	return schedule.Availability{
		PickupHours:          p.PickupHours.Data(),
		DeliveryHours:        p.DeliveryHours.Data(),
		ManualClosed:         p.IsManualClosed,
		DeliveryManualClosed: p.IsDeliveryManualClosed,
	}
}

// PaymentMethodEnabled reports whether method is switched on. Unknown
// methods are off.
func (p *StoreProfile) PaymentMethodEnabled(method string) bool {
	v, ok := p.PaymentMethodsEnabled[method]
	if !ok {
		return false
	}
	enabled, _ := v.(bool)
	return enabled
}

// LoyaltySettings is the singleton row holding loyalty program parameters.
type LoyaltySettings struct {
	BaseModel
	CurrencyPerPoint  float64 `json:"currencyPerPoint"`
	PointsPerCurrency float64 `json:"pointsPerCurrency"`
	RewardPoints      int     `json:"rewardPoints"`
	RewardValue       float64 `json:"rewardValue"`
	SilverThreshold   int     `json:"silverThreshold"`
	SilverDiscount    float64 `json:"silverDiscount"`
	GoldThreshold     int     `json:"goldThreshold"`
	GoldFreeDelivery  bool    `json:"goldFreeDelivery"`
}

// Settings converts the row into the loyalty domain value.
func (l *LoyaltySettings) Settings() loyalty.Settings {
	return loyalty.Settings{
		CurrencyPerPoint:  l.CurrencyPerPoint,
		PointsPerCurrency: l.PointsPerCurrency,
		RewardPoints:      l.RewardPoints,
		RewardValue:       l.RewardValue,
		SilverThreshold:   l.SilverThreshold,
		SilverDiscount:    l.SilverDiscount,
		GoldThreshold:     l.GoldThreshold,
		GoldFreeDelivery:  l.GoldFreeDelivery,
	}
}

// SetSettings copies s into the row.
func (l *LoyaltySettings) SetSettings(s loyalty.Settings) {
	l.CurrencyPerPoint = s.CurrencyPerPoint
	l.PointsPerCurrency = s.PointsPerCurrency
	l.RewardPoints = s.RewardPoints
	l.RewardValue = s.RewardValue
	l.SilverThreshold = s.SilverThreshold
	l.SilverDiscount = s.SilverDiscount
	l.GoldThreshold = s.GoldThreshold
	l.GoldFreeDelivery = s.GoldFreeDelivery
}

// Columns returns the merge-write map for the loyalty row.
func (l *LoyaltySettings) Columns() map[string]any {
	return map[string]any{
		"currency_per_point":  l.CurrencyPerPoint,
		"points_per_currency": l.PointsPerCurrency,
		"reward_points":       l.RewardPoints,
		"reward_value":        l.RewardValue,
		"silver_threshold":    l.SilverThreshold,
		"silver_discount":     l.SilverDiscount,
		"gold_threshold":      l.GoldThreshold,
		"gold_free_delivery":  l.GoldFreeDelivery,
	}
}
