// Package keel implements a client for the Keel approval API.
//
// Keel (https://keel.sh) tracks image-update approvals: each approval
// carries a vote count and a required threshold, and can be approved,
// rejected, archived, or deleted. keelbot only ever reads and votes on
// approvals — it never creates them.
package keel

// Approval is one image-update decision tracked by Keel.
type Approval struct {
	// ID is the opaque unique identifier assigned by Keel.
	ID string `json:"id"`

	// Identifier is the human-readable identity (e.g. "default/myimage:1.5.5").
	// Not unique over time: the same image updated twice yields two approvals
	// with the same identifier and different IDs.
	Identifier string `json:"identifier"`

	// Provider is the Keel provider that created the approval.
	Provider string `json:"provider,omitempty"`

	// Event describes the triggering update event.
	Event string `json:"event,omitempty"`

	Message        string `json:"message,omitempty"`
	CurrentVersion string `json:"currentVersion,omitempty"`
	NewVersion     string `json:"newVersion,omitempty"`

	VotesReceived int `json:"votesReceived"`
	VotesRequired int `json:"votesRequired"`

	Rejected bool `json:"rejected"`
	Archived bool `json:"archived"`

	Deadline  string `json:"deadline,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Status classifies an approval. The four classes are disjoint and
// exhaustive over any listing.
type Status string

const (
	StatusArchived Status = "archived"
	StatusRejected Status = "rejected"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Status returns the approval's status class. Ordering matters:
// archived wins over rejected, and an approval is pending only while
// it is neither archived nor rejected and still below the vote threshold.
func (a Approval) Status() Status {
	switch {
	case a.Archived:
		return StatusArchived
	case a.Rejected:
		return StatusRejected
	case a.VotesReceived < a.VotesRequired:
		return StatusPending
	default:
		return StatusApproved
	}
}

// Pending reports whether the approval still accepts votes.
func (a Approval) Pending() bool {
	return a.Status() == StatusPending
}

// Open reports whether the approval can still be voted on or revoked,
// i.e. it is neither archived nor rejected.
func (a Approval) Open() bool {
	return !a.Archived && !a.Rejected
}

// Partition splits a listing into the four status classes, preserving order.
func Partition(items []Approval) (archived, rejected, pending, approved []Approval) {
	for _, item := range items {
		switch item.Status() {
		case StatusArchived:
			archived = append(archived, item)
		case StatusRejected:
			rejected = append(rejected, item)
		case StatusPending:
			pending = append(pending, item)
		case StatusApproved:
			approved = append(approved, item)
		}
	}
	return archived, rejected, pending, approved
}
