package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Notifier reports failed jobs to an operator.
type Notifier interface {
	NotifyError(ctx context.Context, subject, details string) error
}

// NewNotifier sends to Telegram when a bot is configured and only logs
// otherwise.
func NewNotifier(botToken, chatID string) Notifier {
	if botToken == "" || chatID == "" {
		return logNotifier{}
	}
	return &telegramNotifier{
		apiBase:  telegramAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type logNotifier struct{}

func (logNotifier) NotifyError(_ context.Context, subject, details string) error {
	slog.Warn("notification", "subject", subject, "details", details)
	return nil
}

type telegramNotifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

func (n *telegramNotifier) NotifyError(ctx context.Context, subject, details string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", fmt.Sprintf("%s\n\n%s", subject, truncate(details, 3500)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

// notifyAsync fires a notification without waiting for it. Failures are
// logged and dropped.
func notifyAsync(ctx context.Context, n Notifier, subject, details string) {
	if n == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := n.NotifyError(ctx, subject, details); err != nil {
			slog.Warn("notification failed", "subject", subject, "error", err)
		}
	}()
}
