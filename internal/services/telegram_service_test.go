package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/models"
)

func newTelegram(t *testing.T, status int) (*TelegramService, *[]telegramMessage) {
	t.Helper()
	var sent []telegramMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		var msg telegramMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		sent = append(sent, msg)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	s := NewTelegramService("token", "42")
	s.apiBase = srv.URL
	return s, &sent
}

func TestNotifyTierPromotion(t *testing.T) {
	s, sent := newTelegram(t, http.StatusOK)

	user := models.User{FirstName: "Lina", LastName: "<b>", Phone: "+970590000001", Points: 1600}
	require.NoError(t, s.NotifyTierPromotion(user, loyalty.Silver, loyalty.Gold))

	require.Len(t, *sent, 1)
	msg := (*sent)[0]
	assert.Equal(t, "42", msg.ChatID)
	assert.Equal(t, "HTML", msg.ParseMode)
	assert.Contains(t, msg.Text, "silver → gold")
	assert.Contains(t, msg.Text, "Lina &lt;b&gt;")
	assert.Contains(t, msg.Text, "1600")
}

func TestNotifyStoreClosure(t *testing.T) {
	s, sent := newTelegram(t, http.StatusOK)

	require.NoError(t, s.NotifyStoreClosure("delivery", true))
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].Text, "Delivery ⛔ manually closed")
}

func TestTelegramErrorStatus(t *testing.T) {
	s, _ := newTelegram(t, http.StatusBadRequest)
	assert.Error(t, s.NotifyStoreClosure("store", false))
}

func TestTelegramUnconfiguredIsNoop(t *testing.T) {
	assert.NoError(t, NewTelegramService("", "").NotifyStoreClosure("store", true))
	assert.NoError(t, NewTelegramService("token", "").NotifyTierPromotion(models.User{}, loyalty.Bronze, loyalty.Silver))
}
