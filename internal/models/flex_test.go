package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
)

func TestFlexFloatDecodes(t *testing.T) {
	tests := []struct {
		in   string
		want FlexFloat
	}{
		{`31.77`, 31.77},
		{`"31.77"`, 31.77},
		{`" 1500 "`, 1500},
		{`""`, 0},
	}
	for _, tt := range tests {
		var f FlexFloat
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, f, tt.in)
	}

	var f FlexFloat
	assert.Error(t, json.Unmarshal([]byte(`"north"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`true`), &f))
}

func TestFlexFloatNullKeepsPointerNil(t *testing.T) {
	var z DeliveryZone
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Old City","radius":null,"fee":"15"}`), &z))
	assert.Nil(t, z.Radius)
	assert.Equal(t, FlexFloat(15), z.Fee)

	out, err := json.Marshal(z)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "radius")
	assert.NotContains(t, string(out), "freeDeliveryAbove")
}

func TestLocalizedJSON(t *testing.T) {
	var l Localized
	require.NoError(t, json.Unmarshal([]byte(`"Free delivery"`), &l))
	assert.Equal(t, "Free delivery", l.Get("he"), "falls back to default")

	l = nil
	require.NoError(t, json.Unmarshal([]byte(`{"en":"Haifa","he":"חיפה"}`), &l))
	assert.Equal(t, "חיפה", l.Get("he"))
	assert.True(t, l.Has("Haifa"))
	assert.False(t, l.Has("haifa"), "case-sensitive")

	l = nil
	require.NoError(t, json.Unmarshal([]byte(`""`), &l))
	assert.Nil(t, l)
	assert.True(t, l.IsEmpty())
}

func TestLocalizedYAML(t *testing.T) {
	var doc struct {
		A Localized `yaml:"a"`
		B Localized `yaml:"b"`
		C Localized `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: Weekend\nb: {en: Acre, ar: عكا}\nc: ~\n"), &doc))
	assert.Equal(t, Localized{DefaultLanguage: "Weekend"}, doc.A)
	assert.Equal(t, "عكا", doc.B.Get("ar"))
	assert.Nil(t, doc.C)
}

func TestCloneDoesNotAlias(t *testing.T) {
	z := DeliveryZone{
		Name:       "Old City",
		Center:     &LatLng{Lat: 31.77, Lng: 35.23},
		Radius:     FlexPtr(1500),
		OfferLabel: Localized{"en": "Free"},
	}
	c := z.Clone()
	c.Center.Lat = 0
	*c.Radius = 1
	c.OfferLabel["en"] = "Changed"

	assert.Equal(t, FlexFloat(31.77), z.Center.Lat)
	assert.Equal(t, FlexFloat(1500), *z.Radius)
	assert.Equal(t, "Free", z.OfferLabel["en"])

	city := CityFee{CityName: Localized{"en": "Jaffa"}}
	cc := city.Clone()
	cc.CityName["en"] = "Yafo"
	assert.Equal(t, "Jaffa", city.CityName["en"])
}

func TestPaymentMethodEnabled(t *testing.T) {
	p := StoreProfile{PaymentMethodsEnabled: datatypes.JSONMap{"cash": true, "card": false, "bit": "yes"}}
	assert.True(t, p.PaymentMethodEnabled("cash"))
	assert.False(t, p.PaymentMethodEnabled("card"))
	assert.False(t, p.PaymentMethodEnabled("bit"), "non-bool values are off")
	assert.False(t, p.PaymentMethodEnabled("paypal"))
}
