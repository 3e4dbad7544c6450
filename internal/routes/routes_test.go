package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/example/gelato/internal/config"
	"github.com/example/gelato/internal/handlers"
	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/models"
	"github.com/example/gelato/internal/schedule"
	"github.com/example/gelato/internal/services"
	"github.com/example/gelato/internal/store"
)

const (
	adminEmail    = "owner@gelato.test"
	adminPassword = "pistachio"
)

type fakeSearcher struct {
	places []services.Place
	err    error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]services.Place, error) {
	if f.err != nil {
		return []services.Place{}, f.err
	}
	return f.places, nil
}

type testServer struct {
	app      *fiber.App
	repo     *store.MemoryRepository
	profiles *store.ProfileStore
	geocoder *fakeSearcher
	token    string
}

func allWeek(open, close string) schedule.WeeklyHours {
	w := schedule.WeeklyHours{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		w[schedule.DayKey(d)] = schedule.DayHours{Open: open, Close: close}
	}
	return w
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{JWTSecret: "test-secret", TokenExpires: time.Hour}

	// Wednesday 13:00: pickup and delivery both open.
	now := time.Date(2026, time.October, 14, 13, 0, 0, 0, time.UTC)
	repo := store.NewMemoryRepository()
	profiles := store.NewProfileStore(repo,
		store.WithClock(func() time.Time { return now }),
		store.WithLocation(time.UTC),
	)
	require.NoError(t, profiles.Load(ctx, &models.StoreProfile{
		PickupHours:           datatypes.NewJSONType(allWeek("10:00", "22:00")),
		DeliveryHours:         datatypes.NewJSONType(allWeek("12:00", "21:00")),
		PaymentMethodsEnabled: datatypes.JSONMap{"cash": true},
		MinimumOrderAmount:    20,
	}))
	loyaltyStore := store.NewLoyaltyStore(repo, nil)
	require.NoError(t, loyaltyStore.Load(ctx, loyalty.DefaultSettings()))
	require.NoError(t, handlers.EnsureAdmin(ctx, repo, adminEmail, adminPassword))

	geocoder := &fakeSearcher{}
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	Register(app, Deps{
		Config:   cfg,
		Repo:     repo,
		Profiles: profiles,
		Loyalty:  loyaltyStore,
		Geocoder: geocoder,
	})

	s := &testServer{app: app, repo: repo, profiles: profiles, geocoder: geocoder}
	status, body := s.do(t, "POST", "/api/auth/login", map[string]any{"email": adminEmail, "password": adminPassword})
	require.Equal(t, fiber.StatusOK, status)
	s.token = body["token"].(string)
	return s
}

func (s *testServer) do(t *testing.T, method, path string, payload any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func data(body map[string]any) map[string]any {
	m, _ := body["data"].(map[string]any)
	return m
}

func (s *testServer) addZone(t *testing.T, payload map[string]any) string {
	t.Helper()
	status, body := s.do(t, "POST", "/api/admin/zones", payload)
	require.Equal(t, fiber.StatusCreated, status, body)
	return data(body)["id"].(string)
}

func oldCity() map[string]any {
	return map[string]any{
		"name":              "Old City",
		"center":            map[string]any{"lat": "31.7767", "lng": 35.2345},
		"radius":            "1500",
		"fee":               15,
		"isActive":          true,
		"freeDeliveryAbove": 120,
		"offerLabel":        map[string]any{"en": "Free over 120"},
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	status, body := s.do(t, "POST", "/api/auth/login", map[string]any{"email": adminEmail, "password": "vanilla"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid credentials", body["error"])

	status, _ = s.do(t, "POST", "/api/auth/login", map[string]any{"email": "nobody@gelato.test", "password": "x"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, "GET", "/api/admin/zones", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestZoneCRUD(t *testing.T) {
	s := newTestServer(t)

	id := s.addZone(t, oldCity())

	status, body := s.do(t, "GET", "/api/admin/zones", nil)
	require.Equal(t, fiber.StatusOK, status)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	zone := list[0].(map[string]any)
	assert.Equal(t, 1500.0, zone["radius"], "numeric strings are normalised")
	assert.Equal(t, 31.7767, zone["center"].(map[string]any)["lat"])

	status, body = s.do(t, "PUT", "/api/admin/zones/"+id, map[string]any{"fee": 18, "name": nil})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, 18.0, data(body)["fee"])
	assert.Equal(t, "Old City", data(body)["name"], "null keeps stored value")
	assert.Equal(t, 120.0, data(body)["freeDeliveryAbove"])

	status, body = s.do(t, "PUT", "/api/admin/zones/"+id, map[string]any{"radius": -5})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body = s.do(t, "PUT", "/api/admin/zones/"+id, map[string]any{"radius": 999.6})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "radius must be a whole number of meters", body["error"])

	status, _ = s.do(t, "PUT", "/api/admin/zones/order", map[string]any{"ids": []string{id, id}})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "DELETE", "/api/admin/zones/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(t, "DELETE", "/api/admin/zones/"+id, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestReorderZones(t *testing.T) {
	s := newTestServer(t)
	big := oldCity()
	big["radius"] = 20000
	big["fee"] = 30
	bigID := s.addZone(t, big)
	smallID := s.addZone(t, oldCity())

	status, body := s.do(t, "PUT", "/api/admin/zones/order", map[string]any{"ids": []string{smallID, bigID}})
	require.Equal(t, fiber.StatusOK, status, body)
	list := body["data"].([]any)
	assert.Equal(t, smallID, list[0].(map[string]any)["id"])
}

func TestCityFees(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "POST", "/api/admin/city-fees", map[string]any{
		"cityName": map[string]any{"en": "Ramallah", "ar": "رام الله"},
		"fee":      "25",
		"isActive": true,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	id := data(body)["id"].(string)

	status, body = s.do(t, "POST", "/api/delivery/quote", map[string]any{"mode": "delivery", "city": "رام الله", "subtotal": 50})
	require.Equal(t, fiber.StatusOK, status, body)
	delivery := data(body)["delivery"].(map[string]any)
	assert.Equal(t, 25.0, delivery["fee"])
	assert.Equal(t, "city", delivery["match"].(map[string]any)["kind"])

	status, _ = s.do(t, "PUT", "/api/admin/city-fees/"+id, map[string]any{"isActive": false})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, "POST", "/api/delivery/quote", map[string]any{"mode": "delivery", "city": "Ramallah", "subtotal": 50})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, body = s.do(t, "POST", "/api/admin/city-fees", map[string]any{
		"cityName": map[string]any{"en": "Jenin"},
		"fee":      "NaN",
	})
	assert.Equal(t, fiber.StatusBadRequest, status, body)

	status, _ = s.do(t, "PUT", "/api/admin/city-fees/"+id, map[string]any{"fee": "Inf"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "DELETE", "/api/admin/city-fees/"+id, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestQuote(t *testing.T) {
	s := newTestServer(t)
	s.addZone(t, oldCity())

	tests := []struct {
		name    string
		payload map[string]any
		status  int
		fee     float64
	}{
		{"inside zone", map[string]any{"mode": "delivery", "lat": 31.7767, "lng": 35.2345, "subtotal": 50}, fiber.StatusOK, 15},
		{"free delivery threshold", map[string]any{"mode": "delivery", "lat": 31.7767, "lng": 35.2345, "subtotal": 120}, fiber.StatusOK, 0},
		{"outside every zone", map[string]any{"mode": "delivery", "lat": 32.5, "lng": 34.9, "subtotal": 50}, fiber.StatusUnprocessableEntity, 0},
		{"below minimum order", map[string]any{"mode": "delivery", "lat": 31.7767, "lng": 35.2345, "subtotal": 10}, fiber.StatusUnprocessableEntity, 0},
		{"pickup has no fee", map[string]any{"mode": "pickup", "subtotal": 5}, fiber.StatusOK, 0},
		{"bad mode", map[string]any{"mode": "drone"}, fiber.StatusBadRequest, 0},
		{"bad coordinates", map[string]any{"mode": "delivery", "lat": 123, "lng": 35, "subtotal": 50}, fiber.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, "POST", "/api/delivery/quote", tt.payload)
			require.Equal(t, tt.status, status, body)
			if status == fiber.StatusOK {
				assert.Equal(t, tt.fee, data(body)["fee"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}

	status, body := s.do(t, "POST", "/api/delivery/quote", map[string]any{"mode": "delivery", "lat": 32.5, "lng": 34.9, "subtotal": 50})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "delivery unavailable to this address", body["error"])
}

func TestQuoteWhenClosed(t *testing.T) {
	s := newTestServer(t)
	s.addZone(t, oldCity())

	status, _ := s.do(t, "PUT", "/api/admin/store-profile/delivery-manual-closed", map[string]any{"closed": true})
	require.Equal(t, fiber.StatusOK, status)

	status, body := s.do(t, "POST", "/api/delivery/quote", map[string]any{"mode": "delivery", "lat": 31.7767, "lng": 35.2345, "subtotal": 50})
	require.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, string(schedule.ReasonDeliveryManualClosed), body["reason"])

	status, _ = s.do(t, "POST", "/api/delivery/quote", map[string]any{"mode": "pickup", "subtotal": 50})
	assert.Equal(t, fiber.StatusOK, status, "pickup unaffected")

	status, _ = s.do(t, "PUT", "/api/admin/store-profile/manual-closed", map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, status, "closed is required")
}

func TestQuoteAppliesGoldFreeDelivery(t *testing.T) {
	s := newTestServer(t)
	s.addZone(t, oldCity())
	u := s.repo.PutUser(models.User{FirstName: "Lina"})

	status, body := s.do(t, "PUT", fmt.Sprintf("/api/admin/users/%s/points", u.ID), map[string]any{"points": 1600})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "gold", data(body)["state"].(map[string]any)["membershipLevel"])

	status, body = s.do(t, "POST", "/api/delivery/quote", map[string]any{
		"mode": "delivery", "lat": 31.7767, "lng": 35.2345, "subtotal": 50, "userId": u.ID.String(),
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, 0.0, data(body)["fee"])
	assert.Equal(t, true, data(body)["loyaltyFreeDelivery"])
	assert.Equal(t, 5.0, data(body)["discountPercent"])
	assert.Equal(t, 15.0, data(body)["delivery"].(map[string]any)["fee"], "zone fee still reported")
}

func TestStoreStatusIsPublic(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	status, body := s.do(t, "GET", "/api/store/status", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(body)["pickup"].(map[string]any)["open"])
	assert.Equal(t, true, data(body)["delivery"].(map[string]any)["open"])
	assert.Equal(t, true, data(body)["paymentMethods"].(map[string]any)["cash"])
}

func TestStoreProfileEdits(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "PATCH", "/api/admin/store-profile", map[string]any{
		"minimumOrderAmount": 35,
		"isManualClosed":     nil,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, 35.0, data(body)["minimumOrderAmount"])
	assert.Equal(t, false, data(body)["isManualClosed"])

	status, _ = s.do(t, "PATCH", "/api/admin/store-profile", map[string]any{"deliveryZones": []any{}})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "PUT", "/api/admin/store-profile/hours/delivery", map[string]any{
		"wednesday": map[string]any{"open": "14:00", "close": "20:00"},
	})
	require.Equal(t, fiber.StatusOK, status, body)

	status, body = s.do(t, "GET", "/api/store/status", nil)
	require.Equal(t, fiber.StatusOK, status)
	delivery := data(body)["delivery"].(map[string]any)
	assert.Equal(t, false, delivery["open"])
	assert.Equal(t, "outside_hours", delivery["reason"])
	assert.NotEmpty(t, delivery["nextOpening"])

	status, _ = s.do(t, "PUT", "/api/admin/store-profile/hours/drone", map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "PUT", "/api/admin/store-profile/payment-methods", map[string]any{"card": true})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{"cash": true, "card": true}, body["data"])
}

func TestGeocode(t *testing.T) {
	s := newTestServer(t)

	s.geocoder.places = []services.Place{{DisplayName: "Old City, Jerusalem", Lat: 31.7767, Lng: 35.2345}}
	status, body := s.do(t, "GET", "/api/admin/geocode?q=old+city", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	s.geocoder.err = services.ErrPlaceNotFound
	status, body = s.do(t, "GET", "/api/admin/geocode?q=atlantis", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "place not found", body["error"])

	s.geocoder.err = fmt.Errorf("%w: status 503", services.ErrGeocodingFailed)
	status, body = s.do(t, "GET", "/api/admin/geocode?q=haifa", nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "geocoding request failed", body["error"])

	status, _ = s.do(t, "GET", "/api/admin/geocode", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLoyaltyEndpoints(t *testing.T) {
	s := newTestServer(t)
	u := s.repo.PutUser(models.User{FirstName: "Omar", Points: 495})

	status, body := s.do(t, "POST", "/api/loyalty/orders", map[string]any{"userId": u.ID.String(), "total": 55})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "silver", data(body)["state"].(map[string]any)["membershipLevel"])

	status, body = s.do(t, "GET", "/api/loyalty/tier?points=1500", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "gold", data(body)["membershipLevel"])

	status, _ = s.do(t, "GET", "/api/loyalty/tier?points=-3", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "PATCH", "/api/admin/loyalty/settings", map[string]any{"currencyPerPoint": 4})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, 0.25, data(body)["pointsPerCurrency"])

	status, body = s.do(t, "PATCH", "/api/admin/loyalty/settings", map[string]any{"goldThreshold": 10})
	assert.Equal(t, fiber.StatusBadRequest, status, body)

	status, _ = s.do(t, "PUT", fmt.Sprintf("/api/admin/users/%s/points", u.ID), map[string]any{"points": -1})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "PUT", "/api/admin/users/not-a-uuid/points", map[string]any{"points": 1})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "GET", "/api/admin/users?limit=10", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, 1.0, body["pagination"].(map[string]any)["total_items"])

	s.token = ""
	status, _ = s.do(t, "POST", "/api/loyalty/orders", map[string]any{"userId": u.ID.String(), "total": 55})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
