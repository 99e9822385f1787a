package bot

import (
	"context"

	"github.com/flemzord/keelbot/internal/keel"
	"github.com/flemzord/keelbot/internal/telegram"
)

// ApprovalAPI is the slice of the Keel client the bot consumes.
// *keel.Client satisfies it.
type ApprovalAPI interface {
	List(ctx context.Context) ([]keel.Approval, error)
	ListOpen(ctx context.Context) ([]keel.Approval, error)
	Approve(ctx context.Context, id, identifier, voter string) error
	Reject(ctx context.Context, id, identifier, voter string) error
	Delete(ctx context.Context, id, identifier, voter string) error
}

// Messenger is the slice of the Telegram client the bot consumes.
// *telegram.Client satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) (*telegram.Message, error)
	AnswerCallbackQuery(ctx context.Context, req telegram.AnswerCallbackQueryRequest) error
}

// Recorder persists an audit entry for a state-changing action. Recording is
// best effort: callers log failures and proceed.
type Recorder interface {
	Record(ctx context.Context, action, approvalID, identifier, voter, source string) error
}
