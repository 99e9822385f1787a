// Package bot contains the core of keelbot: the message registry that maps
// approvals to the chat messages displaying them, the sync engine that keeps
// those messages in line with the Keel API, the renderer, the command and
// callback handlers, and the notification dispatcher.
package bot

import "sync"

// Key derives the registry key for an approval. The id alone is unique, but
// the identifier is carried along so keys stay human-readable in logs and the
// identity can round-trip through rendered message text.
func Key(approvalID, identifier string) string {
	return approvalID + "_" + identifier
}

// Registry tracks which chat messages currently display which approval.
// A single approval may be tracked by several messages across several chats
// (re-sent notifications). State lives only in memory: the registry starts
// empty at process startup and is discarded at shutdown.
type Registry struct {
	mu      sync.Mutex
	entries map[string]map[int64]map[int]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]map[int64]map[int]struct{}),
	}
}

// Register records that the given chat message displays the approval with the
// given key. Registering the same message twice has no additional effect.
func (r *Registry) Register(key string, chatID int64, messageID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, ok := r.entries[key]
	if !ok {
		chats = make(map[int64]map[int]struct{})
		r.entries[key] = chats
	}
	msgs, ok := chats[chatID]
	if !ok {
		msgs = make(map[int]struct{})
		chats[chatID] = msgs
	}
	msgs[messageID] = struct{}{}
}

// MessagesFor returns a snapshot of the messages tracked under key, as a map
// from chat id to message ids. Mutating the result does not affect the
// registry. An untracked key yields an empty map.
func (r *Registry) MessagesFor(key string) map[int64][]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int64][]int)
	for chatID, msgs := range r.entries[key] {
		ids := make([]int, 0, len(msgs))
		for id := range msgs {
			ids = append(ids, id)
		}
		out[chatID] = ids
	}
	return out
}

// Forget removes one message from tracking, e.g. after an edit attempt failed
// and the message is presumed unreachable. Forgetting an untracked message is
// a no-op. Empty chat and key entries are pruned.
func (r *Registry) Forget(key string, chatID int64, messageID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, ok := r.entries[key]
	if !ok {
		return
	}
	msgs, ok := chats[chatID]
	if !ok {
		return
	}
	delete(msgs, messageID)
	if len(msgs) == 0 {
		delete(chats, chatID)
	}
	if len(chats) == 0 {
		delete(r.entries, key)
	}
}

// Size returns the number of tracked messages across all keys and chats.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, chats := range r.entries {
		for _, msgs := range chats {
			n += len(msgs)
		}
	}
	return n
}
