package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/gelato/internal/models"
)

// MemoryRepository is an in-process Repository used for local runs
// (DATABASE_URL=memory) and tests. Records are kept as JSON so reads never
// alias what was written, the same as a real round trip.
type MemoryRepository struct {
	mu       sync.Mutex
	profile  []byte
	settings []byte
	users    map[uuid.UUID]models.User
	admins   map[string]models.Admin
	failNext error
	merges   [][]string
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[uuid.UUID]models.User),
		admins: make(map[string]models.Admin),
	}
}

// FailNextWrite makes the next merge or loyalty update return err.
func (m *MemoryRepository) FailNextWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Merges returns the sorted column names of every successful merge write.
func (m *MemoryRepository) Merges() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.merges...)
}

// PutUser inserts or replaces a user.
func (m *MemoryRepository) PutUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = u
	return u
}

func (m *MemoryRepository) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *MemoryRepository) LoadProfile(ctx context.Context) (*models.StoreProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil, ErrNotFound
	}
	var p models.StoreProfile
	if err := json.Unmarshal(m.profile, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MemoryRepository) CreateProfile(ctx context.Context, p *models.StoreProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&p.BaseModel)
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	m.profile = data
	return nil
}

func (m *MemoryRepository) MergeProfile(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if m.profile == nil {
		return ErrNotFound
	}
	var p models.StoreProfile
	if err := json.Unmarshal(m.profile, &p); err != nil {
		return err
	}
	if p.ID != id {
		return ErrNotFound
	}
	fields := map[string]any{
		models.ColumnDeliveryZones:          &p.DeliveryZones,
		models.ColumnDeliveryCityFees:       &p.DeliveryCityFees,
		models.ColumnPickupHours:            &p.PickupHours,
		models.ColumnDeliveryHours:          &p.DeliveryHours,
		models.ColumnIsManualClosed:         &p.IsManualClosed,
		models.ColumnIsDeliveryManualClosed: &p.IsDeliveryManualClosed,
		models.ColumnPaymentMethodsEnabled:  &p.PaymentMethodsEnabled,
		models.ColumnMinimumOrderAmount:     &p.MinimumOrderAmount,
	}
	if err := assignColumns(fields, columns); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	data, err := json.Marshal(&p)
	if err != nil {
		return err
	}
	m.profile = data
	m.recordMerge(columns)
	return nil
}

func (m *MemoryRepository) LoadLoyaltySettings(ctx context.Context) (*models.LoyaltySettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, ErrNotFound
	}
	var s models.LoyaltySettings
	if err := json.Unmarshal(m.settings, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryRepository) CreateLoyaltySettings(ctx context.Context, s *models.LoyaltySettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&s.BaseModel)
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.settings = data
	return nil
}

func (m *MemoryRepository) MergeLoyaltySettings(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if m.settings == nil {
		return ErrNotFound
	}
	var s models.LoyaltySettings
	if err := json.Unmarshal(m.settings, &s); err != nil {
		return err
	}
	if s.ID != id {
		return ErrNotFound
	}
	fields := map[string]any{
		"currency_per_point":  &s.CurrencyPerPoint,
		"points_per_currency": &s.PointsPerCurrency,
		"reward_points":       &s.RewardPoints,
		"reward_value":        &s.RewardValue,
		"silver_threshold":    &s.SilverThreshold,
		"silver_discount":     &s.SilverDiscount,
		"gold_threshold":      &s.GoldThreshold,
		"gold_free_delivery":  &s.GoldFreeDelivery,
	}
	if err := assignColumns(fields, columns); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	data, err := json.Marshal(&s)
	if err != nil {
		return err
	}
	m.settings = data
	m.recordMerge(columns)
	return nil
}

func (m *MemoryRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	search = strings.ToLower(search)
	var matched []models.User
	for _, u := range m.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(strings.ToLower(u.Phone), search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Points != matched[j].Points {
			return matched[i].Points > matched[j].Points
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.User{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MemoryRepository) UpdateUserLoyalty(ctx context.Context, id uuid.UUID, points int, level string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Points = points
	u.MembershipLevel = level
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return nil
}

func (m *MemoryRepository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryRepository) CreateAdmin(ctx context.Context, a *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.admins[a.Email]; exists {
		return fmt.Errorf("admin %s already exists", a.Email)
	}
	stamp(&a.BaseModel)
	m.admins[a.Email] = *a
	return nil
}

func (m *MemoryRepository) recordMerge(columns map[string]any) {
	names := make([]string, 0, len(columns))
	for k := range columns {
		names = append(names, k)
	}
	sort.Strings(names)
	m.merges = append(m.merges, names)
}

func stamp(b *models.BaseModel) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// assignColumns copies each column value into its field through JSON, the
// way the driver would serialise it. Targets are zeroed first so decoding
// never inherits fields from reused slice elements.
func assignColumns(fields map[string]any, columns map[string]any) error {
	for name, value := range columns {
		target, ok := fields[name]
		if !ok {
			return fmt.Errorf("unknown column %q", name)
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
		field := reflect.ValueOf(target).Elem()
		field.Set(reflect.Zero(field.Type()))
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
	}
	return nil
}
