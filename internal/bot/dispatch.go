package bot

import (
	"context"

	"github.com/flemzord/keelbot/internal/telegram"
)

// Dispatcher routes incoming Telegram updates to the command and callback
// handlers. Its HandleUpdate method is the poller's UpdateHandler.
type Dispatcher struct {
	commands  *Commands
	callbacks *Callbacks
}

// NewDispatcher wires the two update paths together.
func NewDispatcher(commands *Commands, callbacks *Callbacks) *Dispatcher {
	return &Dispatcher{commands: commands, callbacks: callbacks}
}

// HandleUpdate processes one update. Edited messages and other update kinds
// are ignored.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update telegram.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return d.callbacks.Handle(ctx, update.CallbackQuery)
	case update.Message != nil:
		return d.commands.Handle(ctx, update.Message)
	default:
		return nil
	}
}
