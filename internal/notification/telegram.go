package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier sends best-effort operational messages. Failures are logged and
// never retried; no workflow decision depends on delivery.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// TelegramNotifier posts messages to a Telegram chat through the bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *TelegramNotifier) Send(ctx context.Context, text string) {
	if n.botToken == "" || n.chatID == "" {
		logrus.Debug("telegram notifier not configured, dropping message")
		return
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		logrus.WithError(err).Warn("failed to encode telegram payload")
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		logrus.WithError(err).Warn("failed to build telegram request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		logrus.WithError(err).Warn("telegram sendMessage failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("telegram sendMessage rejected")
	}
}

// NoopNotifier drops every message; used when no bot is configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(ctx context.Context, text string) {}
