package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/models"
)

const sample = `
minimumOrderAmount: 30
paymentMethods:
  cash: true
  card: false
pickupHours:
  monday: {open: "10:00", close: "22:00"}
  friday: {closed: true}
deliveryHours:
  monday: {open: "12:00", close: "24:00"}
zones:
  - name: Old City
    center: {lat: 31.7767, lng: 35.2345}
    radius: 1500
    fee: 15
    isActive: true
    freeDeliveryAbove: 120
    offerLabel:
      en: Free delivery over 120
      ar: توصيل مجاني
  - id: legacy-box
    name: Beit Hanina
    latMin: 31.82
    latMax: 31.84
    lngMin: 35.19
    lngMax: 35.22
    fee: 20
    isActive: false
    offerLabel: Weekend special
cityFees:
  - cityName: {en: Ramallah, ar: رام الله}
    fee: 25
    isActive: true
loyalty:
  pointsPerCurrency: 0.5
  rewardPoints: 100
  rewardValue: 10
  silverThreshold: 500
  silverDiscount: 5
  goldThreshold: 1500
  goldFreeDelivery: true
`

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	f, err := Load(path)
	require.NoError(t, err)

	p := f.Profile()
	require.Len(t, p.DeliveryZones, 2)
	z := p.DeliveryZones[0]
	assert.Equal(t, "seed-zone-1", z.ID)
	assert.Equal(t, models.FlexFloat(1500), *z.Radius)
	assert.Equal(t, models.FlexFloat(120), *z.FreeDeliveryAbove)
	assert.Equal(t, "توصيل مجاني", z.OfferLabel.Get("ar"))

	box := p.DeliveryZones[1]
	assert.Equal(t, "legacy-box", box.ID)
	assert.Nil(t, box.Center)
	assert.Equal(t, models.FlexFloat(31.82), *box.LatMin)
	assert.Equal(t, "Weekend special", box.OfferLabel.Get("en"), "bare string label")

	require.Len(t, p.DeliveryCityFees, 1)
	assert.True(t, p.DeliveryCityFees[0].CityName.Has("رام الله"))

	assert.True(t, p.PaymentMethodEnabled("cash"))
	assert.False(t, p.PaymentMethodEnabled("card"))
	assert.Equal(t, 30.0, p.MinimumOrderAmount)
	assert.True(t, p.PickupHours.Data()["friday"].Closed)
	assert.Equal(t, "24:00", p.DeliveryHours.Data()["monday"].Close)

	s := f.LoyaltySettings()
	assert.InDelta(t, 2, s.CurrencyPerPoint, 1e-12, "reciprocal filled in")
	require.NoError(t, s.Validate())
}

func TestEmptySeedUsesDefaults(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, loyalty.DefaultSettings(), f.LoyaltySettings())
	assert.Empty(t, f.Profile().DeliveryZones)

	f, err = Parse([]byte(""))
	require.NoError(t, err)
	assert.Zero(t, f.MinimumOrderAmount)
}

func TestSeedRejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("zonez: []"))
	assert.Error(t, err, "unknown key")

	_, err = Parse([]byte(`pickupHours: {monday: {open: "22:00", close: "10:00"}}`))
	assert.Error(t, err)

	_, err = Parse([]byte("minimumOrderAmount: -1"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
