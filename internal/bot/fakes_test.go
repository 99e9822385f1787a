package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/flemzord/keelbot/internal/keel"
	"github.com/flemzord/keelbot/internal/telegram"
)

// fakeKeel is an in-memory ApprovalAPI that records mutations.
type fakeKeel struct {
	mu        sync.Mutex
	approvals []keel.Approval
	listErr   error
	voteErr   error
	calls     []string
}

func (f *fakeKeel) List(context.Context) ([]keel.Approval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]keel.Approval(nil), f.approvals...), nil
}

func (f *fakeKeel) ListOpen(ctx context.Context) ([]keel.Approval, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	var open []keel.Approval
	for _, a := range all {
		if a.Open() {
			open = append(open, a)
		}
	}
	return open, nil
}

func (f *fakeKeel) record(action, id, identifier, voter string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voteErr != nil {
		return f.voteErr
	}
	f.calls = append(f.calls, fmt.Sprintf("%s %s %s %s", action, id, identifier, voter))
	return nil
}

func (f *fakeKeel) Approve(_ context.Context, id, identifier, voter string) error {
	return f.record("approve", id, identifier, voter)
}

func (f *fakeKeel) Reject(_ context.Context, id, identifier, voter string) error {
	return f.record("reject", id, identifier, voter)
}

func (f *fakeKeel) Delete(_ context.Context, id, identifier, voter string) error {
	return f.record("delete", id, identifier, voter)
}

// fakeMessenger records outgoing Telegram calls. editErr, when set, decides
// per request whether an edit fails.
type fakeMessenger struct {
	mu      sync.Mutex
	sent    []telegram.SendMessageRequest
	edits   []telegram.EditMessageTextRequest
	acks    []telegram.AnswerCallbackQueryRequest
	sendErr func(telegram.SendMessageRequest) error
	editErr func(telegram.EditMessageTextRequest) error
	nextID  int
}

func (f *fakeMessenger) SendMessage(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(req); err != nil {
			return nil, err
		}
	}
	f.sent = append(f.sent, req)
	f.nextID++
	return &telegram.Message{MessageID: f.nextID, Chat: telegram.Chat{ID: req.ChatID}}, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, req telegram.EditMessageTextRequest) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		if err := f.editErr(req); err != nil {
			return nil, err
		}
	}
	f.edits = append(f.edits, req)
	return &telegram.Message{MessageID: req.MessageID, Chat: telegram.Chat{ID: req.ChatID}}, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, req telegram.AnswerCallbackQueryRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, req)
	return nil
}

func (f *fakeMessenger) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, s := range f.sent {
		texts = append(texts, s.Text)
	}
	return texts
}

// fakeRecorder captures audit entries.
type fakeRecorder struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, action, approvalID, identifier, voter, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, fmt.Sprintf("%s %s %s %s %s", action, approvalID, identifier, voter, source))
	return nil
}
