package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ClampEvent 封装一次触及业务上下限的额度计算。
type ClampEvent struct {
	UserID        string
	InitialLimit  float64
	CreditLimit   decimal.Decimal
	Bound         string
	ModelVersion  string
	CalculatedAt  time.Time
	AdditionalMsg string
}

// Notifier delivers clamp events to an admin channel.
type Notifier interface {
	NotifyClamp(ctx context.Context, event ClampEvent) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 通知器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "notify_telegram").Logger(),
	}
}

// NotifyClamp 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) NotifyClamp(ctx context.Context, event ClampEvent) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(event),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("user_id", event.UserID).
		Str("bound", event.Bound).
		Msg("clamp notification sent (Telegram)")
	return nil
}

func renderMessage(event ClampEvent) string {
	builder := strings.Builder{}
	builder.WriteString("[Credit Limit Clamp]\n")
	builder.WriteString(fmt.Sprintf("User: %s\n", event.UserID))
	builder.WriteString(fmt.Sprintf("Computed: %.2f\n", event.InitialLimit))
	builder.WriteString(fmt.Sprintf("Final: %s (clamped to %s)\n", event.CreditLimit.String(), event.Bound))
	builder.WriteString(fmt.Sprintf("Model: %s\n", event.ModelVersion))
	builder.WriteString(fmt.Sprintf("At: %s UTC\n", event.CalculatedAt.UTC().Format(time.RFC3339)))
	if event.AdditionalMsg != "" {
		builder.WriteString(event.AdditionalMsg)
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
