// Package seed loads the initial store configuration from a YAML file. The
// seed only fills rows that do not exist yet; it never overwrites edits.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/models"
	"github.com/example/gelato/internal/schedule"
)

// File is the seed document.
type File struct {
	MinimumOrderAmount float64               `yaml:"minimumOrderAmount"`
	PaymentMethods     map[string]bool       `yaml:"paymentMethods"`
	PickupHours        schedule.WeeklyHours  `yaml:"pickupHours"`
	DeliveryHours      schedule.WeeklyHours  `yaml:"deliveryHours"`
	Zones              []models.DeliveryZone `yaml:"zones"`
	CityFees           []models.CityFee      `yaml:"cityFees"`
	Loyalty            *loyalty.Settings     `yaml:"loyalty"`
}

// Load reads path. An empty path yields an empty seed.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := f.PickupHours.Validate(); err != nil {
		return nil, fmt.Errorf("seed pickupHours: %w", err)
	}
	if err := f.DeliveryHours.Validate(); err != nil {
		return nil, fmt.Errorf("seed deliveryHours: %w", err)
	}
	if f.MinimumOrderAmount < 0 {
		return nil, errors.New("seed minimumOrderAmount cannot be negative")
	}
	return &f, nil
}

// Profile builds the default store profile. Zones and city fees without an
// id get a stable one derived from their position.
func (f *File) Profile() *models.StoreProfile {
	p := &models.StoreProfile{
		DeliveryZones:      make(datatypes.JSONSlice[models.DeliveryZone], 0, len(f.Zones)),
		DeliveryCityFees:   make(datatypes.JSONSlice[models.CityFee], 0, len(f.CityFees)),
		PickupHours:        datatypes.NewJSONType(f.PickupHours.Clone()),
		DeliveryHours:      datatypes.NewJSONType(f.DeliveryHours.Clone()),
		MinimumOrderAmount: f.MinimumOrderAmount,
	}
	for i, z := range f.Zones {
		z = z.Clone()
		if z.ID == "" {
			z.ID = fmt.Sprintf("seed-zone-%d", i+1)
		}
		p.DeliveryZones = append(p.DeliveryZones, z)
	}
	for i, c := range f.CityFees {
		c = c.Clone()
		if c.ID == "" {
			c.ID = fmt.Sprintf("seed-city-%d", i+1)
		}
		p.DeliveryCityFees = append(p.DeliveryCityFees, c)
	}
	p.PaymentMethodsEnabled = datatypes.JSONMap{}
	for method, enabled := range f.PaymentMethods {
		p.PaymentMethodsEnabled[method] = enabled
	}
	return p
}

// LoyaltySettings returns the seeded settings, or the defaults.
func (f *File) LoyaltySettings() loyalty.Settings {
	if f.Loyalty == nil {
		return loyalty.DefaultSettings()
	}
	s := *f.Loyalty
	switch {
	case s.CurrencyPerPoint > 0:
		_ = s.SetCurrencyPerPoint(s.CurrencyPerPoint)
	case s.PointsPerCurrency > 0:
		_ = s.SetPointsPerCurrency(s.PointsPerCurrency)
	}
	return s
}
