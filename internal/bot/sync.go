package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/keelbot/internal/telegram"
)

// Syncer reconciles every tracked chat message against the authoritative
// approval state. It is invoked after every mutating action and periodically
// by the scan job; running it with unchanged state is harmless.
type Syncer struct {
	keel     ApprovalAPI
	tg       Messenger
	registry *Registry
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// NewSyncer creates a sync engine. metrics may be nil.
func NewSyncer(api ApprovalAPI, tg Messenger, registry *Registry, logger *slog.Logger, metrics *Metrics) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		keel:     api,
		tg:       tg,
		registry: registry,
		logger:   logger.With("module", "sync"),
		metrics:  metrics,
		tracer:   otel.Tracer("keelbot/bot"),
	}
}

// Synchronize fetches the full approval listing and re-renders every tracked
// message. Edit failures are isolated per message: the failing message is
// logged and forgotten, and all other tracked messages are still processed.
// Approvals tracked in the registry but absent from the listing keep their
// entries untouched.
func (s *Syncer) Synchronize(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "bot.synchronize")
	defer span.End()

	start := time.Now()

	approvals, err := s.keel.List(ctx)
	if err != nil {
		return fmt.Errorf("bot: list approvals for sync: %w", err)
	}
	span.SetAttributes(attribute.Int("approvals.count", len(approvals)))

	var edits, failures int
	for _, a := range approvals {
		key := Key(a.ID, a.Identifier)
		tracked := s.registry.MessagesFor(key)
		if len(tracked) == 0 {
			continue
		}

		text := RenderApproval(a)
		keyboard := Keyboard(a)

		for chatID, messageIDs := range tracked {
			for _, messageID := range messageIDs {
				_, err := s.tg.EditMessageText(ctx, telegram.EditMessageTextRequest{
					ChatID:      chatID,
					MessageID:   messageID,
					Text:        text,
					ParseMode:   telegram.ParseModeHTML,
					ReplyMarkup: keyboard,
				})
				if err != nil {
					if isNotModified(err) {
						continue
					}
					failures++
					s.logger.Warn("message edit failed, dropping from tracking",
						"key", key,
						"chat_id", chatID,
						"message_id", messageID,
						"error", err,
					)
					s.registry.Forget(key, chatID, messageID)
					continue
				}
				edits++
			}
		}
	}

	if s.metrics != nil {
		s.metrics.SyncRuns.Inc()
		s.metrics.SyncEditFailures.Add(float64(failures))
		s.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(
		attribute.Int("edits.succeeded", edits),
		attribute.Int("edits.failed", failures),
	)

	s.logger.Debug("sync pass complete",
		"approvals", len(approvals),
		"edits", edits,
		"failures", failures,
	)
	return nil
}

// isNotModified reports whether an edit failed only because the message
// already shows the rendered content. Sync passes over unchanged state hit
// this constantly; the message is still reachable and stays tracked.
func isNotModified(err error) bool {
	var apiErr *telegram.APIError
	return errors.As(err, &apiErr) &&
		strings.Contains(apiErr.Description, "message is not modified")
}
