package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flemzord/keelbot/internal/keel"
	"github.com/flemzord/keelbot/internal/telegram"
)

const helpText = `<b>keelbot commands</b>
/approvals [--archived] [--approved] [--rejected] — list approvals
/approve &lt;id|identifier&gt; [voter] — approve an image update
/reject &lt;id|identifier&gt; [voter] — reject an image update
/delete &lt;id|identifier&gt; [voter] — delete an approval
/cancel — abort a pending selection
/config — show the active configuration
/version — show the bot version
/help — this text`

// pastTense maps an action to its user-facing past tense.
var pastTense = map[string]string{
	"approve": "Approved",
	"reject":  "Rejected",
	"delete":  "Deleted",
}

// CommandsConfig carries the collaborators of the command facade.
type CommandsConfig struct {
	Keel       ApprovalAPI
	Telegram   Messenger
	Sync       *Syncer
	Selections *Selections
	Audit      Recorder
	Metrics    *Metrics
	Logger     *slog.Logger

	AdminUsernames []string
	Version        string
	ConfigSummary  string
}

// Commands handles admin chat commands and the replies of suspended
// disambiguation selections. Every state-changing command ends with a sync
// pass so tracked messages reflect the new state.
type Commands struct {
	keel       ApprovalAPI
	tg         Messenger
	sync       *Syncer
	selections *Selections
	audit      Recorder
	metrics    *Metrics
	logger     *slog.Logger

	admins  map[string]struct{}
	version string
	config  string
}

// NewCommands creates the command facade. Audit and Metrics may be nil.
func NewCommands(cfg CommandsConfig) *Commands {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	admins := make(map[string]struct{}, len(cfg.AdminUsernames))
	for _, u := range cfg.AdminUsernames {
		admins[strings.ToLower(strings.TrimPrefix(u, "@"))] = struct{}{}
	}
	return &Commands{
		keel:       cfg.Keel,
		tg:         cfg.Telegram,
		sync:       cfg.Sync,
		selections: cfg.Selections,
		audit:      cfg.Audit,
		metrics:    cfg.Metrics,
		logger:     logger.With("module", "commands"),
		admins:     admins,
		version:    cfg.Version,
		config:     cfg.ConfigSummary,
	}
}

// Handle processes one incoming chat message. Messages from non-admins are
// ignored without a response; plain text from an admin is treated as a reply
// to their pending selection, if any.
func (c *Commands) Handle(ctx context.Context, msg *telegram.Message) error {
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	if !c.isAdmin(msg.From.Username) {
		c.logger.Debug("ignoring message from non-admin",
			"username", msg.From.Username,
			"chat_id", msg.Chat.ID,
		)
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return c.handleSelectionReply(ctx, msg, text)
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "start", "help":
		c.reply(ctx, msg.Chat.ID, helpText)
	case "version":
		c.reply(ctx, msg.Chat.ID, "keelbot "+c.version)
	case "config":
		c.reply(ctx, msg.Chat.ID, "<pre>"+c.config+"</pre>")
	case "cancel":
		if c.selections.Cancel(msg.From.ID) {
			c.reply(ctx, msg.Chat.ID, "Selection canceled.")
		} else {
			c.reply(ctx, msg.Chat.ID, "Nothing to cancel.")
		}
	case "approvals", "list_approvals":
		return c.listApprovals(ctx, msg, args)
	case "approve", "reject", "delete":
		return c.resolveAndAct(ctx, msg, name, args)
	default:
		c.reply(ctx, msg.Chat.ID, helpText)
	}
	return nil
}

func (c *Commands) isAdmin(username string) bool {
	if username == "" {
		return false
	}
	_, ok := c.admins[strings.ToLower(username)]
	return ok
}

// listApprovals renders the approval listing. Pending items are always
// shown; archived, approved and rejected sections are opt-in via flags.
func (c *Commands) listApprovals(ctx context.Context, msg *telegram.Message, args []string) error {
	var showArchived, showApproved, showRejected bool
	for _, arg := range args {
		switch arg {
		case "--archived", "-h":
			showArchived = true
		case "--approved", "-a":
			showApproved = true
		case "--rejected", "-r":
			showRejected = true
		}
	}

	all, err := c.keel.List(ctx)
	if err != nil {
		c.logger.Error("listing approvals failed", "error", err)
		c.reply(ctx, msg.Chat.ID, userFacing(err))
		return nil
	}

	archived, rejected, pending, approved := keel.Partition(all)

	var b strings.Builder
	section := func(title string, items []keel.Approval) {
		fmt.Fprintf(&b, "<b>%s</b>\n", title)
		if len(items) == 0 {
			b.WriteString("none\n")
		}
		for _, a := range items {
			b.WriteString(summaryLine(a))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	section("Pending", pending)
	if showApproved {
		section("Approved", approved)
	}
	if showRejected {
		section("Rejected", rejected)
	}
	if showArchived {
		section("Archived", archived)
	}

	c.reply(ctx, msg.Chat.ID, strings.TrimRight(b.String(), "\n"))
	return nil
}

// resolveAndAct implements the two-tier resolution for approve, reject and
// delete: an exact id match acts immediately; otherwise a case-insensitive
// substring match over identifiers suspends a selection the user answers with
// a numbered reply. Approve and reject resolve against open approvals only;
// delete resolves against the full listing.
func (c *Commands) resolveAndAct(ctx context.Context, msg *telegram.Message, action string, args []string) error {
	if len(args) == 0 {
		c.reply(ctx, msg.Chat.ID, fmt.Sprintf("Usage: /%s &lt;id|identifier&gt; [voter]", action))
		return nil
	}
	target := args[0]
	voter := strings.Join(args[1:], " ")
	if voter == "" {
		voter = msg.From.FullName()
	}

	var listing []keel.Approval
	var err error
	if action == "delete" {
		listing, err = c.keel.List(ctx)
	} else {
		listing, err = c.keel.ListOpen(ctx)
	}
	if err != nil {
		c.logger.Error("listing approvals failed", "action", action, "error", err)
		c.reply(ctx, msg.Chat.ID, userFacing(err))
		return nil
	}

	// Tier one: exact id match bypasses disambiguation entirely.
	for _, a := range listing {
		if a.ID == target {
			return c.perform(ctx, msg.Chat.ID, action, a, voter)
		}
	}

	// Tier two: substring match over identifiers.
	needle := strings.ToLower(target)
	var candidates []keel.Approval
	for _, a := range listing {
		if strings.Contains(strings.ToLower(a.Identifier), needle) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		c.reply(ctx, msg.Chat.ID, fmt.Sprintf("No matching approval for %q.", target))
		return nil
	}

	c.selections.Begin(msg.From.ID, action, voter, candidates)
	c.reply(ctx, msg.Chat.ID, Prompt(action, candidates))
	return nil
}

// handleSelectionReply feeds plain text into the user's pending selection.
func (c *Commands) handleSelectionReply(ctx context.Context, msg *telegram.Message, text string) error {
	approval, action, voter, ok := c.selections.Resolve(msg.From.ID, text)
	if !ok {
		if c.selections.Awaiting(msg.From.ID) {
			c.reply(ctx, msg.Chat.ID, "Reply with one of the listed numbers, or /cancel.")
		}
		return nil
	}
	return c.perform(ctx, msg.Chat.ID, action, approval, voter)
}

// perform issues the resolved mutation, reports the outcome to the chat and
// triggers a sync pass on success.
func (c *Commands) perform(ctx context.Context, chatID int64, action string, a keel.Approval, voter string) error {
	var err error
	switch action {
	case "approve":
		err = c.keel.Approve(ctx, a.ID, a.Identifier, voter)
	case "reject":
		err = c.keel.Reject(ctx, a.ID, a.Identifier, voter)
	case "delete":
		err = c.keel.Delete(ctx, a.ID, a.Identifier, voter)
	default:
		return fmt.Errorf("bot: unknown action %q", action)
	}

	if err != nil {
		c.countAction(action, "error")
		c.logger.Error("approval action failed",
			"action", action,
			"approval_id", a.ID,
			"identifier", a.Identifier,
			"error", err,
		)
		c.reply(ctx, chatID, userFacing(err))
		return nil
	}

	c.countAction(action, "ok")
	c.recordAudit(ctx, action, a, voter, "command")
	c.reply(ctx, chatID, fmt.Sprintf("%s %s", pastTense[action], a.Identifier))

	if err := c.sync.Synchronize(ctx); err != nil {
		c.logger.Error("sync after command failed", "error", err)
	}
	return nil
}

func (c *Commands) countAction(action, outcome string) {
	if c.metrics != nil {
		c.metrics.Actions.WithLabelValues(action, outcome).Inc()
	}
}

func (c *Commands) recordAudit(ctx context.Context, action string, a keel.Approval, voter, source string) {
	if c.audit == nil {
		return
	}
	if err := c.audit.Record(ctx, action, a.ID, a.Identifier, voter, source); err != nil {
		c.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func (c *Commands) reply(ctx context.Context, chatID int64, text string) {
	_, err := c.tg.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: telegram.ParseModeHTML,
	})
	if err != nil {
		c.logger.Warn("reply failed", "chat_id", chatID, "error", err)
	}
}

// userFacing turns an error into a short human-readable string. Remote API
// errors surface the service's own detail text.
func userFacing(err error) string {
	var apiErr *keel.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "Request failed, see the bot logs."
}
