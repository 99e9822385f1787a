package bot

import "errors"

var (
	// ErrMalformedMessage indicates a button click whose source message text
	// lacks the Id or Identifier line needed to recover the approval identity.
	ErrMalformedMessage = errors.New("bot: message text lacks approval identity")

	// ErrNoMatch indicates an id or identifier that matched no approval in
	// the relevant listing.
	ErrNoMatch = errors.New("bot: no matching approval")
)
