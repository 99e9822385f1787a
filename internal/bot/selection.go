package bot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flemzord/keelbot/internal/keel"
)

// pendingSelection is one user's suspended disambiguation: the action they
// asked for and the candidates their input matched, waiting for a numbered
// reply.
type pendingSelection struct {
	action     string
	voter      string
	candidates []keel.Approval
	expires    time.Time
}

// Selections is the per-user disambiguation state machine. Each user is
// either idle or awaiting a selection; a fresh request supersedes a pending
// one, and /cancel or inactivity returns the user to idle. One user's
// pending selection never blocks another's.
type Selections struct {
	mu      sync.Mutex
	timeout time.Duration
	byUser  map[int64]*pendingSelection
	now     func() time.Time
}

// NewSelections creates the selection store. timeout bounds how long a
// pending selection stays answerable.
func NewSelections(timeout time.Duration) *Selections {
	return &Selections{
		timeout: timeout,
		byUser:  make(map[int64]*pendingSelection),
		now:     time.Now,
	}
}

// Begin suspends a new selection for the user, replacing any pending one.
func (s *Selections) Begin(userID int64, action, voter string, candidates []keel.Approval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = &pendingSelection{
		action:     action,
		voter:      voter,
		candidates: candidates,
		expires:    s.now().Add(s.timeout),
	}
}

// Resolve matches a user's reply against their pending candidates. The reply
// may be the candidate's number (as presented) or its full identifier. On a
// match the pending state is consumed and the chosen approval returned.
// A reply with no pending selection, an expired selection, or no matching
// candidate yields ok=false; expiry also clears the state.
func (s *Selections) Resolve(userID int64, reply string) (approval keel.Approval, action, voter string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, exists := s.byUser[userID]
	if !exists {
		return keel.Approval{}, "", "", false
	}
	if s.now().After(pending.expires) {
		delete(s.byUser, userID)
		return keel.Approval{}, "", "", false
	}

	reply = strings.TrimSpace(reply)
	if n, err := strconv.Atoi(reply); err == nil && n >= 1 && n <= len(pending.candidates) {
		delete(s.byUser, userID)
		return pending.candidates[n-1], pending.action, pending.voter, true
	}
	for _, c := range pending.candidates {
		if strings.EqualFold(c.Identifier, reply) || c.ID == reply {
			delete(s.byUser, userID)
			return c, pending.action, pending.voter, true
		}
	}
	return keel.Approval{}, "", "", false
}

// Cancel drops the user's pending selection. It reports whether one existed.
func (s *Selections) Cancel(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.byUser[userID]
	delete(s.byUser, userID)
	return exists
}

// Awaiting reports whether the user has a live pending selection.
func (s *Selections) Awaiting(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, exists := s.byUser[userID]
	if !exists {
		return false
	}
	if s.now().After(pending.expires) {
		delete(s.byUser, userID)
		return false
	}
	return true
}

// Prompt formats the numbered candidate list presented to the user.
func Prompt(action string, candidates []keel.Approval) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reply with a number to %s, or /cancel:\n", action)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, summaryLine(c))
	}
	return strings.TrimRight(b.String(), "\n")
}
