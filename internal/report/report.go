// Package report classifies story turn outcomes and delivers issue reports
// to story authors. Reports are a best-effort side channel: delivery
// failures never propagate back into the player-facing turn.
package report

import (
	"context"
	"errors"
)

// Kind identifies one report category. Each kind is delivered at most once
// per story, guarded by a persisted flag on the story record.
type Kind string

const (
	KindInkError      Kind = "ink-error"
	KindInkWarning    Kind = "ink-warning"
	KindPotentialLoop Kind = "potential-loop"
	KindMaxChoices    Kind = "max-choices-exceeded"
)

// Event is one report to be delivered to a story's author. Transient: only
// the per-kind delivered flag is persisted.
type Event struct {
	Kind    Kind
	Details string
	// Context holds the last few output lines before the problem, for
	// author diagnosis. May be empty.
	Context []string
}

// ErrTooManyDMs is the platform's signal that direct-message channels are
// being opened too fast. Only the bulk withdraw flow reacts to it.
var ErrTooManyDMs = errors.New("report: opening direct messages too fast")

// Notifier delivers a text message to a user's direct-message channel.
// Implementations map their platform's DM rate-limit signal to
// ErrTooManyDMs.
type Notifier interface {
	DirectMessage(ctx context.Context, userID, text string) error
}
