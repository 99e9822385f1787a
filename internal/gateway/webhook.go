package gateway

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/flemzord/keelbot/internal/bot"
)

const maxWebhookBytes = 1 << 20

// handleWebhook returns the handler for POST /webhooks/keel. Keel posts one
// JSON notification per deployment event; accepted events are broadcast to
// every configured chat.
func (g *Gateway) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		var ev bot.WebhookEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			g.logger.Warn("webhook payload rejected", "error", err)
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if ev.Name == "" && ev.Message == "" && ev.Identifier == "" {
			http.Error(w, "empty payload", http.StatusBadRequest)
			return
		}

		if g.metrics != nil {
			g.metrics.WebhooksReceived.Inc()
		}
		g.notifier.BroadcastEvent(r.Context(), ev)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

// authorized validates the webhook token when one is configured. The token
// may arrive in the X-Webhook-Token header or a token query parameter (Keel
// notification URLs commonly embed it).
func (g *Gateway) authorized(r *http.Request) bool {
	token := g.config.WebhookToken
	if token == "" {
		return true
	}
	presented := r.Header.Get("X-Webhook-Token")
	if presented == "" {
		presented = r.URL.Query().Get("token")
	}
	return constantTimeEqual(presented, token)
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
