package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/example/gelato/internal/models"
	"github.com/example/gelato/internal/zones"
)

// ZonePatch is a partial zone update. Nil fields are left alone.
type ZonePatch struct {
	Name                   *string           `json:"name"`
	Center                 *models.LatLng    `json:"center"`
	Radius                 *models.FlexFloat `json:"radius"`
	Fee                    *models.FlexFloat `json:"fee"`
	IsActive               *bool             `json:"isActive"`
	FreeDeliveryAbove      *models.FlexFloat `json:"freeDeliveryAbove"`
	ClearFreeDeliveryAbove bool              `json:"clearFreeDeliveryAbove"`
	OfferLabel             models.Localized  `json:"offerLabel"`
}

func (p ZonePatch) empty() bool {
	return p.Name == nil && p.Center == nil && p.Radius == nil && p.Fee == nil &&
		p.IsActive == nil && p.FreeDeliveryAbove == nil && !p.ClearFreeDeliveryAbove &&
		p.OfferLabel == nil
}

func (p ZonePatch) applyTo(z *models.DeliveryZone) {
	if p.Name != nil {
		z.Name = strings.TrimSpace(*p.Name)
	}
	if p.Center != nil {
		c := *p.Center
		z.Center = &c
		z.Lat, z.Lng = nil, nil
		z.LatMin, z.LatMax, z.LngMin, z.LngMax = nil, nil, nil, nil
	}
	if p.Radius != nil {
		r := *p.Radius
		z.Radius = &r
	}
	if p.Fee != nil {
		z.Fee = *p.Fee
	}
	if p.IsActive != nil {
		z.IsActive = *p.IsActive
	}
	if p.ClearFreeDeliveryAbove {
		z.FreeDeliveryAbove = nil
	}
	if p.FreeDeliveryAbove != nil {
		v := *p.FreeDeliveryAbove
		z.FreeDeliveryAbove = &v
	}
	if p.OfferLabel != nil {
		label := z.OfferLabel.Clone()
		if label == nil {
			label = models.Localized{}
		}
		for lang, text := range p.OfferLabel {
			if text == "" {
				delete(label, lang)
				continue
			}
			label[lang] = text
		}
		if len(label) == 0 {
			label = nil
		}
		z.OfferLabel = label
	}
}

// Zones returns copies of the stored zone documents in match order.
func (s *ProfileStore) Zones() ([]models.DeliveryZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil, ErrNotLoaded
	}
	out := make([]models.DeliveryZone, len(s.profile.DeliveryZones))
	for i, z := range s.profile.DeliveryZones {
		out[i] = z.Clone()
	}
	return out, nil
}

func zonesEdit(name string, mutate func(list []models.DeliveryZone) ([]models.DeliveryZone, error)) *edit {
	var prev datatypes.JSONSlice[models.DeliveryZone]
	return &edit{
		name: name,
		apply: func(p *models.StoreProfile) error {
			prev = p.DeliveryZones
			working := make([]models.DeliveryZone, len(prev))
			for i, z := range prev {
				working[i] = z.Clone()
			}
			next, err := mutate(working)
			if err != nil {
				return err
			}
			p.DeliveryZones = next
			return nil
		},
		revert:  func(p *models.StoreProfile) { p.DeliveryZones = prev },
		columns: []string{models.ColumnDeliveryZones},
	}
}

func indexOfZone(list []models.DeliveryZone, id string) int {
	for i, z := range list {
		if z.ID == id {
			return i
		}
	}
	return -1
}

func checkZone(z models.DeliveryZone) error {
	if z.Name == "" {
		return invalid("zone name is required")
	}
	if err := zones.ValidateZone(z); err != nil {
		return invalid(err.Error())
	}
	return nil
}

// AddZone appends a zone. It matches after every existing zone.
func (s *ProfileStore) AddZone(ctx context.Context, z models.DeliveryZone) (models.DeliveryZone, error) {
	z = z.Clone()
	z.Name = strings.TrimSpace(z.Name)
	if z.ID == "" {
		z.ID = uuid.NewString()
	}
	if err := checkZone(z); err != nil {
		return models.DeliveryZone{}, err
	}
	err := s.execute(ctx, zonesEdit("add zone", func(list []models.DeliveryZone) ([]models.DeliveryZone, error) {
		if indexOfZone(list, z.ID) >= 0 {
			return nil, invalid("zone id " + z.ID + " already exists")
		}
		return append(list, z), nil
	}))
	if err != nil {
		return models.DeliveryZone{}, err
	}
	return z.Clone(), nil
}

// UpdateZone applies patch to one zone, keeping its position.
func (s *ProfileStore) UpdateZone(ctx context.Context, id string, patch ZonePatch) (models.DeliveryZone, error) {
	if patch.empty() {
		return models.DeliveryZone{}, invalid("no fields to update")
	}
	var updated models.DeliveryZone
	err := s.execute(ctx, zonesEdit("update zone", func(list []models.DeliveryZone) ([]models.DeliveryZone, error) {
		i := indexOfZone(list, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		patch.applyTo(&list[i])
		if err := checkZone(list[i]); err != nil {
			return nil, err
		}
		updated = list[i].Clone()
		return list, nil
	}))
	if err != nil {
		return models.DeliveryZone{}, err
	}
	return updated, nil
}

// DeleteZone removes a zone. The remaining zones keep their relative order.
func (s *ProfileStore) DeleteZone(ctx context.Context, id string) error {
	return s.execute(ctx, zonesEdit("delete zone", func(list []models.DeliveryZone) ([]models.DeliveryZone, error) {
		i := indexOfZone(list, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(list[:i], list[i+1:]...), nil
	}))
}

// ReorderZones sets the match order. ids must name every zone exactly once.
func (s *ProfileStore) ReorderZones(ctx context.Context, ids []string) error {
	return s.execute(ctx, zonesEdit("reorder zones", func(list []models.DeliveryZone) ([]models.DeliveryZone, error) {
		if len(ids) != len(list) {
			return nil, invalid("order must list every zone exactly once")
		}
		next := make([]models.DeliveryZone, 0, len(list))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			i := indexOfZone(list, id)
			if i < 0 || seen[id] {
				return nil, invalid("order must list every zone exactly once")
			}
			seen[id] = true
			next = append(next, list[i])
		}
		return next, nil
	}))
}

// CityFeePatch is a partial city fee update.
type CityFeePatch struct {
	CityName models.Localized  `json:"cityName"`
	Fee      *models.FlexFloat `json:"fee"`
	IsActive *bool             `json:"isActive"`
}

// CityFees returns copies of the city overrides.
func (s *ProfileStore) CityFees() ([]models.CityFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil, ErrNotLoaded
	}
	out := make([]models.CityFee, len(s.profile.DeliveryCityFees))
	for i, c := range s.profile.DeliveryCityFees {
		out[i] = c.Clone()
	}
	return out, nil
}

func citiesEdit(name string, mutate func(list []models.CityFee) ([]models.CityFee, error)) *edit {
	var prev datatypes.JSONSlice[models.CityFee]
	return &edit{
		name: name,
		apply: func(p *models.StoreProfile) error {
			prev = p.DeliveryCityFees
			working := make([]models.CityFee, len(prev))
			for i, c := range prev {
				working[i] = c.Clone()
			}
			next, err := mutate(working)
			if err != nil {
				return err
			}
			p.DeliveryCityFees = next
			return nil
		},
		revert:  func(p *models.StoreProfile) { p.DeliveryCityFees = prev },
		columns: []string{models.ColumnDeliveryCityFees},
	}
}

func checkCity(c models.CityFee) error {
	if c.CityName.IsEmpty() {
		return invalid("city name is required")
	}
	if err := zones.ValidateCity(c); err != nil {
		return invalid(err.Error())
	}
	return nil
}

func indexOfCity(list []models.CityFee, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// AddCityFee appends a city override.
func (s *ProfileStore) AddCityFee(ctx context.Context, c models.CityFee) (models.CityFee, error) {
	c = c.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := checkCity(c); err != nil {
		return models.CityFee{}, err
	}
	err := s.execute(ctx, citiesEdit("add city fee", func(list []models.CityFee) ([]models.CityFee, error) {
		if indexOfCity(list, c.ID) >= 0 {
			return nil, invalid("city fee id " + c.ID + " already exists")
		}
		return append(list, c), nil
	}))
	if err != nil {
		return models.CityFee{}, err
	}
	return c.Clone(), nil
}

// UpdateCityFee applies patch to one city override. Given city names merge
// into the existing ones per language.
func (s *ProfileStore) UpdateCityFee(ctx context.Context, id string, patch CityFeePatch) (models.CityFee, error) {
	if patch.CityName == nil && patch.Fee == nil && patch.IsActive == nil {
		return models.CityFee{}, invalid("no fields to update")
	}
	var updated models.CityFee
	err := s.execute(ctx, citiesEdit("update city fee", func(list []models.CityFee) ([]models.CityFee, error) {
		i := indexOfCity(list, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		c := &list[i]
		if patch.CityName != nil {
			names := c.CityName.Clone()
			if names == nil {
				names = models.Localized{}
			}
			for lang, name := range patch.CityName {
				if name == "" {
					delete(names, lang)
					continue
				}
				names[lang] = name
			}
			c.CityName = names
		}
		if patch.Fee != nil {
			c.Fee = *patch.Fee
		}
		if patch.IsActive != nil {
			c.IsActive = *patch.IsActive
		}
		if err := checkCity(*c); err != nil {
			return nil, err
		}
		updated = c.Clone()
		return list, nil
	}))
	if err != nil {
		return models.CityFee{}, err
	}
	return updated, nil
}

// DeleteCityFee removes a city override.
func (s *ProfileStore) DeleteCityFee(ctx context.Context, id string) error {
	return s.execute(ctx, citiesEdit("delete city fee", func(list []models.CityFee) ([]models.CityFee, error) {
		i := indexOfCity(list, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(list[:i], list[i+1:]...), nil
	}))
}
