package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/gelato/internal/loyalty"
	"github.com/example/gelato/internal/models"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     telegramAPI,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// NotifyStoreClosure tells the admin chat that a manual override changed.
// scope is "store" for the master switch and "delivery" for delivery only.
func (s *TelegramService) NotifyStoreClosure(scope string, closed bool) error {
	if s.adminChatID == "" {
		return nil
	}

	subject := "🏪 Store"
	if scope == "delivery" {
		subject = "🛵 Delivery"
	}
	state := "✅ reopened"
	if closed {
		state = "⛔ manually closed"
	}

	message := fmt.Sprintf(`<b>%s %s</b>
<b>🕒 At:</b> %s
━━━━━━━━━━━━━━━━━━`,
		subject,
		state,
		time.Now().Format("2006-01-02 15:04"),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyTierPromotion tells the admin chat that a customer moved up a tier.
func (s *TelegramService) NotifyTierPromotion(user models.User, from, to loyalty.Tier) error {
	if s.adminChatID == "" {
		return nil
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.DisplayName
	}

	message := fmt.Sprintf(`<b>⭐ TIER PROMOTION</b>
<b>👤 Customer:</b> %s
<b>📞 Phone:</b> %s
<b>🏅 Level:</b> %s → %s
<b>💯 Points:</b> %d
━━━━━━━━━━━━━━━━━━`,
		html.EscapeString(name),
		html.EscapeString(user.Phone),
		from,
		to,
		user.Points,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
