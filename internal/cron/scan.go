package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/flemzord/keelbot/internal/bot"
	"github.com/flemzord/keelbot/internal/keel"
)

// ApprovalLister lists the current approvals. *keel.Client satisfies it.
type ApprovalLister interface {
	List(ctx context.Context) ([]keel.Approval, error)
}

// Announcer sends a new pending approval to the configured chats.
// *bot.Notifier satisfies it.
type Announcer interface {
	AnnounceApproval(ctx context.Context, a keel.Approval)
}

// Synchronizer runs one sync pass. *bot.Syncer satisfies it.
type Synchronizer interface {
	Synchronize(ctx context.Context) error
}

// ScanJob polls the approval listing: pending approvals not announced before
// are dispatched to the chats, then a sync pass brings all tracked messages
// up to date. The seen set is in memory only, so after a restart currently
// pending approvals are announced again, which also repopulates the registry.
type ScanJob struct {
	Keel         ApprovalLister
	Notifier     Announcer
	Sync         Synchronizer
	Logger       *slog.Logger
	ScheduleExpr string // empty = every minute

	mu   sync.Mutex
	seen map[string]struct{}
}

// Compile-time interface check.
var _ Job = (*ScanJob)(nil)

// Name implements Job.
func (j *ScanJob) Name() string { return "approval_scan" }

// Schedule implements Job.
func (j *ScanJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "* * * * *"
}

// Run implements Job.
func (j *ScanJob) Run(ctx context.Context) error {
	approvals, err := j.Keel.List(ctx)
	if err != nil {
		return fmt.Errorf("cron: approval scan: %w", err)
	}

	j.mu.Lock()
	if j.seen == nil {
		j.seen = make(map[string]struct{})
	}

	var fresh []keel.Approval
	listed := make(map[string]struct{}, len(approvals))
	for _, a := range approvals {
		key := bot.Key(a.ID, a.Identifier)
		listed[key] = struct{}{}
		_, known := j.seen[key]
		j.seen[key] = struct{}{}
		// Approvals first observed in a closed state were handled
		// elsewhere; only fresh pending ones are announced.
		if !known && a.Pending() {
			fresh = append(fresh, a)
		}
	}
	// Drop seen entries for approvals no longer listed, so the set does
	// not grow without bound.
	for key := range j.seen {
		if _, ok := listed[key]; !ok {
			delete(j.seen, key)
		}
	}
	j.mu.Unlock()

	for _, a := range fresh {
		j.Logger.Info("new pending approval",
			"approval_id", a.ID,
			"identifier", a.Identifier,
		)
		j.Notifier.AnnounceApproval(ctx, a)
	}

	if err := j.Sync.Synchronize(ctx); err != nil {
		return fmt.Errorf("cron: sync after scan: %w", err)
	}
	return nil
}
