package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/example/gelato/internal/models"
	"github.com/example/gelato/internal/schedule"
	"github.com/example/gelato/internal/zones"
)

// ProfileStore serves the store profile from memory and applies edits with
// optimistic local updates. Concurrent admins in separate processes still
// race: the last merge write wins.
type ProfileStore struct {
	repo     Repository
	notifier Notifier
	distance zones.DistanceFunc
	location *time.Location
	clock    func() time.Time

	mu       sync.RWMutex
	profile  *models.StoreProfile
	resolver *zones.Resolver
	warnings []zones.Warning
}

// ProfileOption customises a ProfileStore.
type ProfileOption func(*ProfileStore)

// WithDistance selects the distance function for zone matching.
func WithDistance(fn zones.DistanceFunc) ProfileOption {
	return func(s *ProfileStore) { s.distance = fn }
}

// WithLocation sets the store's wall-clock timezone.
func WithLocation(loc *time.Location) ProfileOption {
	return func(s *ProfileStore) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithNotifier sets the sink for closure notifications.
func WithNotifier(n Notifier) ProfileOption {
	return func(s *ProfileStore) { s.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ProfileOption {
	return func(s *ProfileStore) { s.clock = now }
}

// NewProfileStore builds an unloaded store. Call Load before use.
func NewProfileStore(repo Repository, opts ...ProfileOption) *ProfileStore {
	s := &ProfileStore{
		repo:     repo,
		distance: zones.Haversine,
		location: time.Local,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the profile once. When none exists, defaults (or an empty
// profile) is created.
func (s *ProfileStore) Load(ctx context.Context, defaults *models.StoreProfile) error {
	p, err := s.repo.LoadProfile(ctx)
	if errors.Is(err, ErrNotFound) {
		p = defaults
		if p == nil {
			p = &models.StoreProfile{}
		}
		if err := validateProfile(p); err != nil {
			return fmt.Errorf("default store profile: %w", err)
		}
		if err := s.repo.CreateProfile(ctx, p); err != nil {
			return fmt.Errorf("create store profile: %w", err)
		}
		log.Printf("[Store] created store profile %s", p.ID)
	} else if err != nil {
		return fmt.Errorf("load store profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.rebuild()
	return nil
}

func validateProfile(p *models.StoreProfile) error {
	for _, z := range p.DeliveryZones {
		if err := zones.ValidateZone(z); err != nil {
			return fmt.Errorf("zone %q: %w", z.Name, err)
		}
	}
	if err := p.PickupHours.Data().Validate(); err != nil {
		return fmt.Errorf("pickup hours: %w", err)
	}
	if err := p.DeliveryHours.Data().Validate(); err != nil {
		return fmt.Errorf("delivery hours: %w", err)
	}
	return nil
}

// rebuild normalizes the zone documents. Callers hold the write lock.
func (s *ProfileStore) rebuild() {
	resolver, warnings := zones.Build(s.profile.DeliveryZones, s.profile.DeliveryCityFees, zones.WithDistance(s.distance))
	for _, w := range warnings {
		log.Printf("[Zones] skipping zone: %s", w)
	}
	s.resolver = resolver
	s.warnings = warnings
}

// execute applies cmd locally, merge-writes the touched columns, and reverts
// the local change if the write fails.
func (s *ProfileStore) execute(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return ErrNotLoaded
	}
	if err := cmd.Apply(s.profile); err != nil {
		return err
	}
	if err := s.repo.MergeProfile(ctx, s.profile.ID, Compact(cmd.Columns(s.profile))); err != nil {
		cmd.Revert(s.profile)
		log.Printf("[Store] %v failed, local state reverted: %v", cmd, err)
		return fmt.Errorf("save store profile: %w", err)
	}
	s.rebuild()
	return nil
}

// Profile returns a copy of the current profile.
func (s *ProfileStore) Profile() (models.StoreProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return models.StoreProfile{}, ErrNotLoaded
	}
	return cloneProfile(s.profile), nil
}

// Warnings returns the zones skipped by the last normalization.
func (s *ProfileStore) Warnings() []zones.Warning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]zones.Warning(nil), s.warnings...)
}

// Resolve prices a delivery against the in-memory configuration.
func (s *ProfileStore) Resolve(req zones.Request) (zones.Quote, error) {
	r, err := s.Resolver()
	if err != nil {
		return zones.Quote{}, err
	}
	return r.Resolve(req)
}

// Resolver returns the resolver built from the last known-good
// configuration. It is immutable and safe to share.
func (s *ProfileStore) Resolver() (*zones.Resolver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.resolver == nil {
		return nil, ErrNotLoaded
	}
	return s.resolver, nil
}

// MinimumOrder is the smallest subtotal accepted for delivery.
func (s *ProfileStore) MinimumOrder() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return 0
	}
	return s.profile.MinimumOrderAmount
}

// PaymentMethods returns the enabled flag of every configured method.
func (s *ProfileStore) PaymentMethods() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]bool{}
	if s.profile == nil {
		return out
	}
	for method := range s.profile.PaymentMethodsEnabled {
		out[method] = s.profile.PaymentMethodEnabled(method)
	}
	return out
}

// Now is the current store wall-clock time.
func (s *ProfileStore) Now() time.Time {
	return s.clock().In(s.location)
}

// Availability returns the current schedule view.
func (s *ProfileStore) Availability() schedule.Availability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return schedule.Availability{ManualClosed: true}
	}
	a := s.profile.Availability()
	a.PickupHours = a.PickupHours.Clone()
	a.DeliveryHours = a.DeliveryHours.Clone()
	return a
}

// Status evaluates one mode at the current store time.
type Status struct {
	Mode        schedule.Mode   `json:"mode"`
	Open        bool            `json:"open"`
	Reason      schedule.Reason `json:"reason"`
	NextOpening *time.Time      `json:"nextOpening,omitempty"`
}

// Status reports whether mode accepts orders now.
func (s *ProfileStore) Status(mode schedule.Mode) Status {
	now := s.Now()
	a := s.Availability()
	open, reason := a.Check(mode, now)
	st := Status{Mode: mode, Open: open, Reason: reason}
	if !open {
		if next, ok := a.NextOpening(mode, now); ok {
			st.NextOpening = &next
		}
	}
	return st
}

// SetHours replaces the weekly schedule of one mode.
func (s *ProfileStore) SetHours(ctx context.Context, mode schedule.Mode, hours schedule.WeeklyHours) error {
	if err := hours.Validate(); err != nil {
		return invalid(err.Error())
	}
	column := models.ColumnPickupHours
	field := func(p *models.StoreProfile) *datatypes.JSONType[schedule.WeeklyHours] { return &p.PickupHours }
	if mode == schedule.Delivery {
		column = models.ColumnDeliveryHours
		field = func(p *models.StoreProfile) *datatypes.JSONType[schedule.WeeklyHours] { return &p.DeliveryHours }
	}

	var prev datatypes.JSONType[schedule.WeeklyHours]
	return s.execute(ctx, &edit{
		name: "set " + string(mode) + " hours",
		apply: func(p *models.StoreProfile) error {
			prev = *field(p)
			*field(p) = datatypes.NewJSONType(hours.Clone())
			return nil
		},
		revert:  func(p *models.StoreProfile) { *field(p) = prev },
		columns: []string{column},
	})
}

// SetManualClosed toggles the master override that closes pickup and delivery.
func (s *ProfileStore) SetManualClosed(ctx context.Context, closed bool) error {
	if err := s.execute(ctx, flagEdit(models.ColumnIsManualClosed, closed)); err != nil {
		return err
	}
	s.notifyClosure("store", closed)
	return nil
}

// SetDeliveryManualClosed toggles the override that closes delivery only.
func (s *ProfileStore) SetDeliveryManualClosed(ctx context.Context, closed bool) error {
	if err := s.execute(ctx, flagEdit(models.ColumnIsDeliveryManualClosed, closed)); err != nil {
		return err
	}
	s.notifyClosure("delivery", closed)
	return nil
}

func (s *ProfileStore) notifyClosure(scope string, closed bool) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyStoreClosure(scope, closed); err != nil {
		log.Printf("[Store] closure notification failed: %v", err)
	}
}

// SetPaymentMethods merges toggles into the stored map. Methods not named
// keep their stored value.
func (s *ProfileStore) SetPaymentMethods(ctx context.Context, methods map[string]bool) error {
	if len(methods) == 0 {
		return invalid("no payment methods to update")
	}
	return s.execute(ctx, paymentEdit(methods))
}

// SetMinimumOrder sets the smallest subtotal accepted for delivery.
func (s *ProfileStore) SetMinimumOrder(ctx context.Context, amount float64) error {
	e, err := minimumOrderEdit(amount)
	if err != nil {
		return err
	}
	return s.execute(ctx, e)
}

func minimumOrderEdit(amount float64) (*edit, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, invalid("minimumOrderAmount cannot be negative")
	}
	var prev float64
	return &edit{
		name: "set minimum order",
		apply: func(p *models.StoreProfile) error {
			prev = p.MinimumOrderAmount
			p.MinimumOrderAmount = amount
			return nil
		},
		revert:  func(p *models.StoreProfile) { p.MinimumOrderAmount = prev },
		columns: []string{models.ColumnMinimumOrderAmount},
	}, nil
}

// ApplyPatch merges a decoded JSON object of top-level settings in one
// write. Null members are ignored; unknown members are rejected.
func (s *ProfileStore) ApplyPatch(ctx context.Context, patch map[string]any) error {
	patch = Compact(patch)
	if len(patch) == 0 {
		return invalid("no fields to update")
	}

	var cmds batch
	var closures []func()
	for key, value := range patch {
		switch key {
		case "isManualClosed", "isDeliveryManualClosed":
			closed, ok := value.(bool)
			if !ok {
				return invalid(key + " must be a boolean")
			}
			column, scope := models.ColumnIsManualClosed, "store"
			if key == "isDeliveryManualClosed" {
				column, scope = models.ColumnIsDeliveryManualClosed, "delivery"
			}
			cmds = append(cmds, flagEdit(column, closed))
			closures = append(closures, func() { s.notifyClosure(scope, closed) })
		case "minimumOrderAmount":
			amount, ok := value.(float64)
			if !ok {
				return invalid("minimumOrderAmount must be a number")
			}
			e, err := minimumOrderEdit(amount)
			if err != nil {
				return err
			}
			cmds = append(cmds, e)
		case "paymentMethodsEnabled":
			raw, ok := value.(map[string]any)
			if !ok {
				return invalid("paymentMethodsEnabled must be an object")
			}
			methods := make(map[string]bool, len(raw))
			for k, v := range raw {
				b, ok := v.(bool)
				if !ok {
					return invalid("paymentMethodsEnabled." + k + " must be a boolean")
				}
				methods[k] = b
			}
			cmds = append(cmds, paymentEdit(methods))
		default:
			return invalid("unknown field " + key)
		}
	}

	if err := s.execute(ctx, cmds); err != nil {
		return err
	}
	for _, notify := range closures {
		notify()
	}
	return nil
}

func flagEdit(column string, value bool) *edit {
	var prev bool
	field := func(p *models.StoreProfile) *bool {
		if column == models.ColumnIsManualClosed {
			return &p.IsManualClosed
		}
		return &p.IsDeliveryManualClosed
	}
	return &edit{
		name: "set " + column,
		apply: func(p *models.StoreProfile) error {
			prev = *field(p)
			*field(p) = value
			return nil
		},
		revert:  func(p *models.StoreProfile) { *field(p) = prev },
		columns: []string{column},
	}
}

func paymentEdit(methods map[string]bool) *edit {
	var prev datatypes.JSONMap
	return &edit{
		name: "set payment methods",
		apply: func(p *models.StoreProfile) error {
			prev = p.PaymentMethodsEnabled
			next := datatypes.JSONMap{}
			for k, v := range prev {
				next[k] = v
			}
			for k, v := range methods {
				next[k] = v
			}
			p.PaymentMethodsEnabled = next
			return nil
		},
		revert:  func(p *models.StoreProfile) { p.PaymentMethodsEnabled = prev },
		columns: []string{models.ColumnPaymentMethodsEnabled},
	}
}

func cloneProfile(p *models.StoreProfile) models.StoreProfile {
	out := *p
	out.DeliveryZones = make(datatypes.JSONSlice[models.DeliveryZone], len(p.DeliveryZones))
	for i, z := range p.DeliveryZones {
		out.DeliveryZones[i] = z.Clone()
	}
	out.DeliveryCityFees = make(datatypes.JSONSlice[models.CityFee], len(p.DeliveryCityFees))
	for i, c := range p.DeliveryCityFees {
		out.DeliveryCityFees[i] = c.Clone()
	}
	out.PickupHours = datatypes.NewJSONType(p.PickupHours.Data().Clone())
	out.DeliveryHours = datatypes.NewJSONType(p.DeliveryHours.Data().Clone())
	if p.PaymentMethodsEnabled != nil {
		out.PaymentMethodsEnabled = make(datatypes.JSONMap, len(p.PaymentMethodsEnabled))
		for k, v := range p.PaymentMethodsEnabled {
			out.PaymentMethodsEnabled[k] = v
		}
	}
	return out
}
