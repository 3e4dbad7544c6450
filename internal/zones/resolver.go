package zones

import (
	"errors"

	"github.com/example/gelato/internal/models"
)

// ErrDeliveryUnavailable means no active city override or zone covers the
// address. It is distinct from a zero fee.
var ErrDeliveryUnavailable = errors.New("delivery unavailable to this address")

// MatchKind tells whether a quote came from a city override or a zone.
type MatchKind string

const (
	MatchCity MatchKind = "city"
	MatchZone MatchKind = "zone"
)

// Match identifies the configuration entry that priced the delivery.
type Match struct {
	Kind MatchKind `json:"kind"`
	ID   string    `json:"id"`
	Name string    `json:"name"`
}

// Request is one resolution input. Point may be nil when only a city is known.
type Request struct {
	Point    *Point
	City     string
	Subtotal float64
}

// Quote is the outcome of a resolution.
type Quote struct {
	Fee                   float64          `json:"fee"`
	Match                 *Match           `json:"match"`
	FreeDeliveryApplied   bool             `json:"freeDeliveryApplied"`
	OfferLabel            models.Localized `json:"offerLabel,omitempty"`
	FreeDeliveryAbove     *float64         `json:"freeDeliveryAbove,omitempty"`
	FreeDeliveryRemaining float64          `json:"freeDeliveryRemaining,omitempty"`
	DistanceMeters        float64          `json:"distanceMeters,omitempty"`
}

// Available reports whether the quote matched anything.
func (q Quote) Available() bool { return q.Match != nil }

// Resolver holds an immutable, normalized copy of the fee configuration.
type Resolver struct {
	zones    []Zone
	cities   []City
	distance DistanceFunc
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithDistance replaces the default haversine distance.
func WithDistance(fn DistanceFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.distance = fn
		}
	}
}

// NewResolver builds a resolver over already-normalized configuration.
func NewResolver(zones []Zone, cities []City, opts ...Option) *Resolver {
	r := &Resolver{
		zones:    append([]Zone(nil), zones...),
		cities:   append([]City(nil), cities...),
		distance: Haversine,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build normalizes stored documents and returns a resolver plus the
// warnings for skipped zones.
func Build(zoneDocs []models.DeliveryZone, cityDocs []models.CityFee, opts ...Option) (*Resolver, []Warning) {
	zs, warnings := Normalize(zoneDocs)
	return NewResolver(zs, NormalizeCities(cityDocs), opts...), warnings
}

// Zones returns the normalized zones in stored order.
func (r *Resolver) Zones() []Zone {
	return append([]Zone(nil), r.zones...)
}

// Resolve prices a delivery. City overrides are checked first, then active
// zones in stored order; the first match wins.
func (r *Resolver) Resolve(req Request) (Quote, error) {
	if req.City != "" {
		for _, c := range r.cities {
			if c.IsActive && c.Names.Has(req.City) {
				return Quote{
					Fee:   c.Fee,
					Match: &Match{Kind: MatchCity, ID: c.ID, Name: req.City},
				}, nil
			}
		}
	}

	if req.Point == nil || !req.Point.Valid() {
		return Quote{}, ErrDeliveryUnavailable
	}

	for _, z := range r.zones {
		if !z.IsActive {
			continue
		}
		ok, dist := z.Geometry.Contains(*req.Point, r.distance)
		if !ok {
			continue
		}
		q := Quote{
			Fee:            z.Fee,
			Match:          &Match{Kind: MatchZone, ID: z.ID, Name: z.Name},
			DistanceMeters: dist,
		}
		if z.FreeDeliveryAbove != nil {
			threshold := *z.FreeDeliveryAbove
			q.FreeDeliveryAbove = &threshold
			if req.Subtotal >= threshold {
				q.Fee = 0
				q.FreeDeliveryApplied = true
				q.OfferLabel = z.OfferLabel.Clone()
			} else {
				q.FreeDeliveryRemaining = threshold - req.Subtotal
			}
		}
		return q, nil
	}
	return Quote{}, ErrDeliveryUnavailable
}
