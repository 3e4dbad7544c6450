package zones

import (
	"errors"
	"fmt"
	"math"

	"github.com/example/gelato/internal/models"
)

// Zone is a delivery zone after normalization.
type Zone struct {
	ID                string
	Name              string
	Geometry          Geometry
	Fee               float64
	IsActive          bool
	FreeDeliveryAbove *float64
	OfferLabel        models.Localized
}

// City is a flat-fee city override.
type City struct {
	ID       string
	Names    models.Localized
	Fee      float64
	IsActive bool
}

// Warning describes a zone document skipped during normalization.
type Warning struct {
	ZoneID string `json:"zoneId"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("zone %q (%s): %s", w.Name, w.ZoneID, w.Reason)
}

var (
	errNoGeometry   = errors.New("zone needs a center with radius or a bounding box")
	errNegativeFee  = errors.New("fee cannot be negative")
	errBadThreshold = errors.New("freeDeliveryAbove cannot be negative")
	errRadiusMeters = errors.New("radius must be a whole number of meters")
	errBadCityFee   = errors.New("city fee must be a non-negative number")
)

// GeometryOf decides the shape of a stored zone. Center plus radius wins
// over a bounding box; a flat lat/lng pair counts as a center.
func GeometryOf(doc models.DeliveryZone) (Geometry, error) {
	if c, ok := circleOf(doc); ok {
		return c, nil
	}
	if b, ok := boxOf(doc); ok {
		return b, nil
	}
	return nil, errNoGeometry
}

func circleOf(doc models.DeliveryZone) (Circle, bool) {
	if doc.Radius == nil {
		return Circle{}, false
	}
	var center Point
	switch {
	case doc.Center != nil:
		center = Point{Lat: doc.Center.Lat.Float(), Lng: doc.Center.Lng.Float()}
	case doc.Lat != nil && doc.Lng != nil:
		center = Point{Lat: doc.Lat.Float(), Lng: doc.Lng.Float()}
	default:
		return Circle{}, false
	}
	r := doc.Radius.Float()
	if !center.Valid() || !finite(r) || r < 0 {
		return Circle{}, false
	}
	return Circle{Center: center, Radius: int(r)}, true
}

func boxOf(doc models.DeliveryZone) (BoundingBox, bool) {
	if doc.LatMin == nil || doc.LatMax == nil || doc.LngMin == nil || doc.LngMax == nil {
		return BoundingBox{}, false
	}
	b := BoundingBox{
		LatMin: doc.LatMin.Float(),
		LatMax: doc.LatMax.Float(),
		LngMin: doc.LngMin.Float(),
		LngMax: doc.LngMax.Float(),
	}
	return b, b.valid()
}

// ValidateZone is the write-path check for a zone document. Normalize
// applies it too, so a stored fractional radius is skipped rather than
// rounded.
func ValidateZone(doc models.DeliveryZone) error {
	geom, err := GeometryOf(doc)
	if err != nil {
		return err
	}
	if _, ok := geom.(Circle); ok {
		if r := doc.Radius.Float(); r != math.Trunc(r) {
			return errRadiusMeters
		}
	}
	if doc.Fee < 0 || !finite(doc.Fee.Float()) {
		return errNegativeFee
	}
	if doc.FreeDeliveryAbove != nil && (*doc.FreeDeliveryAbove < 0 || !finite(doc.FreeDeliveryAbove.Float())) {
		return errBadThreshold
	}
	return nil
}

// Normalize converts stored documents into zones, once, at load time.
// Malformed documents are skipped and reported, never fatal.
func Normalize(docs []models.DeliveryZone) ([]Zone, []Warning) {
	out := make([]Zone, 0, len(docs))
	var warnings []Warning
	for _, doc := range docs {
		geom, err := GeometryOf(doc)
		if err == nil {
			err = ValidateZone(doc)
		}
		if err != nil {
			warnings = append(warnings, Warning{ZoneID: doc.ID, Name: doc.Name, Reason: err.Error()})
			continue
		}
		z := Zone{
			ID:         doc.ID,
			Name:       doc.Name,
			Geometry:   geom,
			Fee:        doc.Fee.Float(),
			IsActive:   doc.IsActive,
			OfferLabel: doc.OfferLabel.Clone(),
		}
		if doc.FreeDeliveryAbove != nil {
			v := doc.FreeDeliveryAbove.Float()
			z.FreeDeliveryAbove = &v
		}
		out = append(out, z)
	}
	return out, warnings
}

// ValidateCity is the write-path check for a city fee document.
func ValidateCity(doc models.CityFee) error {
	if doc.Fee < 0 || !finite(doc.Fee.Float()) {
		return errBadCityFee
	}
	return nil
}

// NormalizeCities converts stored city fee documents.
func NormalizeCities(docs []models.CityFee) []City {
	out := make([]City, 0, len(docs))
	for _, doc := range docs {
		out = append(out, City{
			ID:       doc.ID,
			Names:    doc.CityName.Clone(),
			Fee:      doc.Fee.Float(),
			IsActive: doc.IsActive,
		})
	}
	return out
}
