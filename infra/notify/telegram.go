// Package notify sends operator notifications via the Telegram bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SensorsIot/Energy-Management/config"
	"github.com/SensorsIot/Energy-Management/infra/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram posts messages to a chat. Credentials are passed explicitly at
// construction; an unconfigured notifier silently drops messages.
type Telegram struct {
	apiBase  string
	botToken string
	chatID   string
	http     *http.Client
	log      logger.Logger
}

// NewTelegram builds a notifier from the configuration.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Telegram{
		apiBase:  apiBase,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      logger.New("telegram"),
	}
}

// Configured reports whether messages will actually be sent.
func (t *Telegram) Configured() bool { return t.botToken != "" && t.chatID != "" }

// Send posts an HTML-formatted message. silent suppresses the notification
// sound on the receiving device.
func (t *Telegram) Send(ctx context.Context, message string, silent bool) error {
	if !t.Configured() {
		t.log.Debugf("telegram not configured, skipping notification")
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"chat_id":              t.chatID,
		"text":                 message,
		"parse_mode":           "HTML",
		"disable_notification": silent,
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send telegram message: unexpected status %s", resp.Status)
	}
	return nil
}

// Info sends a titled informational message without a sound.
func (t *Telegram) Info(ctx context.Context, title, message string) error {
	return t.Send(ctx, fmt.Sprintf("<b>%s</b>\n\n%s", title, message), true)
}

// Warning sends a titled warning without a sound.
func (t *Telegram) Warning(ctx context.Context, title, message string) error {
	return t.Send(ctx, fmt.Sprintf("<b>Warning: %s</b>\n\n%s", title, message), true)
}

// Error sends a titled error with a sound.
func (t *Telegram) Error(ctx context.Context, title, message string) error {
	return t.Send(ctx, fmt.Sprintf("<b>Error: %s</b>\n\n%s", title, message), false)
}
