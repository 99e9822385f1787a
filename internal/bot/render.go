package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/flemzord/keelbot/internal/keel"
	"github.com/flemzord/keelbot/internal/telegram"
)

// Callback tokens carried in inline-button payloads. The payload carries only
// the action: the approval identity is recovered by parsing the Id and
// Identifier lines of the message the button is attached to.
const (
	CallbackApprove = "approve"
	CallbackReject  = "reject"
	CallbackNoop    = "noop"
)

// RenderApproval formats an approval as HTML message text. The Id and
// Identifier lines are load-bearing: button clicks recover the approval
// identity by parsing them back out of the displayed text, so they must
// stay on their own lines with their exact labels.
func RenderApproval(a keel.Approval) string {
	var b strings.Builder

	switch a.Status() {
	case keel.StatusPending:
		fmt.Fprintf(&b, "🔔 <b>Pending approval</b>\n")
	case keel.StatusApproved:
		fmt.Fprintf(&b, "✅ <b>Approved</b>\n")
	case keel.StatusRejected:
		fmt.Fprintf(&b, "❌ <b>Rejected</b>\n")
	case keel.StatusArchived:
		fmt.Fprintf(&b, "🗄 <b>Archived</b>\n")
	}

	if a.Message != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(a.Message))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Id: %s\n", html.EscapeString(a.ID))
	fmt.Fprintf(&b, "Identifier: %s\n", html.EscapeString(a.Identifier))
	fmt.Fprintf(&b, "Votes: %d/%d\n", a.VotesReceived, a.VotesRequired)

	if a.CurrentVersion != "" || a.NewVersion != "" {
		fmt.Fprintf(&b, "Delta: %s → %s\n",
			html.EscapeString(a.CurrentVersion), html.EscapeString(a.NewVersion))
	}
	if a.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s\n", html.EscapeString(a.Provider))
	}
	if a.Deadline != "" {
		fmt.Fprintf(&b, "Deadline: %s\n", html.EscapeString(a.Deadline))
	}

	return strings.TrimRight(b.String(), "\n")
}

// Keyboard builds the inline keyboard for an approval: approve and reject
// buttons while votes are still being collected, and a single inert status
// button once the approval is closed.
func Keyboard(a keel.Approval) *telegram.InlineKeyboardMarkup {
	if a.Pending() {
		return &telegram.InlineKeyboardMarkup{
			InlineKeyboard: [][]telegram.InlineKeyboardButton{{
				{Text: "Approve", CallbackData: CallbackApprove},
				{Text: "Reject", CallbackData: CallbackReject},
			}},
		}
	}

	var label string
	switch a.Status() {
	case keel.StatusApproved:
		label = "Approved ✔"
	case keel.StatusRejected:
		label = "Rejected ✘"
	default:
		label = "Archived"
	}
	return telegram.SingleColumn(telegram.InlineKeyboardButton{
		Text:         label,
		CallbackData: CallbackNoop,
	})
}

// summaryLine formats one approval for the /approvals listing.
func summaryLine(a keel.Approval) string {
	return fmt.Sprintf("%s [%d/%d] <code>%s</code>",
		html.EscapeString(a.Identifier), a.VotesReceived, a.VotesRequired,
		html.EscapeString(a.ID))
}
