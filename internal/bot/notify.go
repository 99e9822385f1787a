package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/flemzord/keelbot/internal/keel"
	"github.com/flemzord/keelbot/internal/telegram"
)

// WebhookEvent is the notification payload Keel posts to the gateway.
type WebhookEvent struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Level      string `json:"level"`
	Message    string `json:"message"`
}

// Notifier broadcasts Keel events and new pending approvals to every
// configured chat.
type Notifier struct {
	tg       Messenger
	registry *Registry
	chatIDs  []int64
	logger   *slog.Logger
	metrics  *Metrics
}

// NewNotifier creates the dispatcher. metrics may be nil.
func NewNotifier(tg Messenger, registry *Registry, chatIDs []int64, logger *slog.Logger, metrics *Metrics) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		tg:       tg,
		registry: registry,
		chatIDs:  chatIDs,
		logger:   logger.With("module", "notify"),
		metrics:  metrics,
	}
}

// BroadcastEvent formats a webhook event and sends it to every configured
// chat. This path bypasses the registry: event messages carry no buttons and
// are never edited afterwards.
func (n *Notifier) BroadcastEvent(ctx context.Context, ev WebhookEvent) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>", levelEmoji(ev.Level), html.EscapeString(ev.Name))
	if ev.Type != "" {
		fmt.Fprintf(&b, " (%s)", html.EscapeString(ev.Type))
	}
	b.WriteString("\n")
	if ev.Message != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(ev.Message))
	}
	if ev.Identifier != "" {
		fmt.Fprintf(&b, "\nIdentifier: %s", html.EscapeString(ev.Identifier))
	}
	text := strings.TrimRight(b.String(), "\n")

	for _, chatID := range n.chatIDs {
		_, err := n.tg.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:    chatID,
			Text:      text,
			ParseMode: telegram.ParseModeHTML,
		})
		if err != nil {
			n.logger.Warn("event broadcast failed", "chat_id", chatID, "error", err)
			continue
		}
		if n.metrics != nil {
			n.metrics.NotificationsSent.Inc()
		}
	}
}

// AnnounceApproval sends a new pending approval to every configured chat and
// registers each delivered message so later sync passes keep it current. One
// failing chat does not prevent delivery to the others.
func (n *Notifier) AnnounceApproval(ctx context.Context, a keel.Approval) {
	text := RenderApproval(a)
	keyboard := Keyboard(a)
	key := Key(a.ID, a.Identifier)

	for _, chatID := range n.chatIDs {
		msg, err := n.tg.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:      chatID,
			Text:        text,
			ParseMode:   telegram.ParseModeHTML,
			ReplyMarkup: keyboard,
		})
		if err != nil {
			n.logger.Warn("approval notification failed",
				"key", key,
				"chat_id", chatID,
				"error", err,
			)
			continue
		}
		n.registry.Register(key, chatID, msg.MessageID)
		if n.metrics != nil {
			n.metrics.NotificationsSent.Inc()
		}
	}
}

func levelEmoji(level string) string {
	switch strings.ToLower(level) {
	case "success":
		return "✅"
	case "failure", "error":
		return "❌"
	case "warn", "warning":
		return "⚠️"
	default:
		return "ℹ️"
	}
}
