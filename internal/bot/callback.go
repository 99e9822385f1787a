package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/flemzord/keelbot/internal/telegram"
)

// The approval identity is parsed back out of the displayed message text.
// RenderApproval guarantees both labeled lines are present.
var (
	idPattern         = regexp.MustCompile(`(?m)^Id: (.*)$`)
	identifierPattern = regexp.MustCompile(`(?m)^Identifier: (.*)$`)
)

// parseApprovalRef recovers the approval identity from rendered message
// text. A missing or empty Id or Identifier line yields ErrMalformedMessage.
func parseApprovalRef(text string) (id, identifier string, err error) {
	idMatch := idPattern.FindStringSubmatch(text)
	identMatch := identifierPattern.FindStringSubmatch(text)
	if idMatch == nil || identMatch == nil {
		return "", "", ErrMalformedMessage
	}
	id = strings.TrimSpace(idMatch[1])
	identifier = strings.TrimSpace(identMatch[1])
	if id == "" || identifier == "" {
		return "", "", ErrMalformedMessage
	}
	return id, identifier, nil
}

// Callbacks resolves inline-button clicks into approval mutations.
type Callbacks struct {
	keel    ApprovalAPI
	tg      Messenger
	sync    *Syncer
	audit   Recorder
	metrics *Metrics
	logger  *slog.Logger
}

// NewCallbacks creates the button-click handler. Audit and metrics may be nil.
func NewCallbacks(api ApprovalAPI, tg Messenger, sync *Syncer, audit Recorder, metrics *Metrics, logger *slog.Logger) *Callbacks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Callbacks{
		keel:    api,
		tg:      tg,
		sync:    sync,
		audit:   audit,
		metrics: metrics,
		logger:  logger.With("module", "callback"),
	}
}

// Handle processes one button click. The callback payload carries only the
// action token; the approval identity comes from the message text. Every
// path answers the callback query so the client's loading state clears.
func (h *Callbacks) Handle(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq == nil {
		return nil
	}

	if cq.Data == CallbackNoop {
		h.ack(ctx, cq.ID, "")
		return nil
	}
	if cq.Data != CallbackApprove && cq.Data != CallbackReject {
		h.logger.Warn("unexpected callback token", "data", cq.Data)
		h.ack(ctx, cq.ID, "Unknown error")
		return nil
	}

	if cq.Message == nil {
		h.logger.Error("callback without source message", "data", cq.Data)
		h.ack(ctx, cq.ID, "Unknown error")
		return nil
	}
	id, identifier, err := parseApprovalRef(cq.Message.Text)
	if err != nil {
		h.logger.Error("cannot recover approval identity from message",
			"chat_id", cq.Message.Chat.ID,
			"message_id", cq.Message.MessageID,
			"error", err,
		)
		h.ack(ctx, cq.ID, "Unknown error")
		return nil
	}

	voter := cq.From.FullName()
	action := cq.Data
	if action == CallbackApprove {
		err = h.keel.Approve(ctx, id, identifier, voter)
	} else {
		err = h.keel.Reject(ctx, id, identifier, voter)
	}

	if err != nil {
		if h.metrics != nil {
			h.metrics.Actions.WithLabelValues(action, "error").Inc()
		}
		h.logger.Error("button action failed",
			"action", action,
			"approval_id", id,
			"identifier", identifier,
			"error", err,
		)
		h.ack(ctx, cq.ID, userFacing(err))
		return nil
	}

	if h.metrics != nil {
		h.metrics.Actions.WithLabelValues(action, "ok").Inc()
	}
	if h.audit != nil {
		if auditErr := h.audit.Record(ctx, action, id, identifier, voter, "button"); auditErr != nil {
			h.logger.Warn("audit record failed", "action", action, "error", auditErr)
		}
	}
	h.ack(ctx, cq.ID, fmt.Sprintf("%s %s", pastTense[action], identifier))

	if err := h.sync.Synchronize(ctx); err != nil {
		h.logger.Error("sync after button click failed", "error", err)
	}
	return nil
}

func (h *Callbacks) ack(ctx context.Context, callbackID, text string) {
	err := h.tg.AnswerCallbackQuery(ctx, telegram.AnswerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("answering callback failed", "error", err)
	}
}
