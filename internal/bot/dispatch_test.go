package bot

import (
	"context"
	"testing"

	"github.com/flemzord/keelbot/internal/keel"
	"github.com/flemzord/keelbot/internal/telegram"
)

func TestDispatcherRoutes(t *testing.T) {
	api := &fakeKeel{approvals: []keel.Approval{
		{ID: "a1", Identifier: "ns/img:1.0", VotesRequired: 2},
	}}
	tg := &fakeMessenger{}
	cmds, registry, _ := newTestCommands(api, tg)
	callbacks := NewCallbacks(api, tg, NewSyncer(api, tg, registry, testLogger(), nil), nil, nil, testLogger())
	d := NewDispatcher(cmds, callbacks)

	// A command message goes to the command facade.
	err := d.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: 1,
		Message:  adminMessage("/version"),
	})
	if err != nil {
		t.Fatalf("HandleUpdate(message) error: %v", err)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(tg.sent))
	}

	// A button click goes to the callback handler.
	err = d.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: 2,
		CallbackQuery: &telegram.CallbackQuery{
			ID:   "cb-1",
			Data: CallbackNoop,
		},
	})
	if err != nil {
		t.Fatalf("HandleUpdate(callback) error: %v", err)
	}
	if len(tg.acks) != 1 {
		t.Fatalf("acks = %d, want 1", len(tg.acks))
	}

	// Anything else is ignored.
	if err := d.HandleUpdate(context.Background(), telegram.Update{UpdateID: 3}); err != nil {
		t.Fatalf("HandleUpdate(empty) error: %v", err)
	}
}
