package report

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Shepard/bardbot-sub001/internal/chunk"
	"github.com/Shepard/bardbot-sub001/internal/models"
)

// maxMessageLength is the platform's limit on one direct message.
const maxMessageLength = 2000

// Flags persists the delivered-once flag per story and kind. MarkReported
// returns true only for the first caller to flip a given flag.
type Flags interface {
	MarkReported(storyID string, kind Kind) (bool, error)
}

// Reporter delivers issue reports to story authors over direct messages,
// at most once per story and kind.
type Reporter struct {
	flags  Flags
	notify Notifier
}

// NewReporter creates a Reporter.
func NewReporter(flags Flags, notify Notifier) (*Reporter, error) {
	if flags == nil {
		return nil, fmt.Errorf("report: flags store is required")
	}
	if notify == nil {
		return nil, fmt.Errorf("report: notifier is required")
	}
	return &Reporter{flags: flags, notify: notify}, nil
}

// Report delivers ev to the story's owner. The persisted flag is claimed
// before any delivery is attempted, so a crash between the two means a
// dropped report rather than a duplicate one. Failures are logged and
// swallowed.
func (r *Reporter) Report(ctx context.Context, story *models.Story, ev Event) {
	first, err := r.flags.MarkReported(story.ID, ev.Kind)
	if err != nil {
		log.Printf("report: mark %s on %s: %v", ev.Kind, story.ID, err)
		return
	}
	if !first {
		return
	}

	for _, part := range chunk.Segment(formatEvent(story, ev), maxMessageLength) {
		if err := r.notify.DirectMessage(ctx, story.OwnerID, part); err != nil {
			log.Printf("report: notify %s about %s on %s: %v", story.OwnerID, ev.Kind, story.ID, err)
			return
		}
	}
}

// headlines maps each kind to its author-facing opening line.
var headlines = map[Kind]string{
	KindInkError:      "An error occurred while a player was playing your story %q. Their session had to be stopped.",
	KindInkWarning:    "A warning was raised while a player was playing your story %q.",
	KindPotentialLoop: "Your story %q repeatedly took too long to produce its next lines and looks stuck in an infinite loop. It can no longer be started until the problem is fixed.",
	KindMaxChoices:    "Your story %q offered more choices at once than can be presented. Only a limited number of buttons fit on one message.",
}

func formatEvent(story *models.Story, ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, headlines[ev.Kind], story.Title)
	if ev.Details != "" {
		b.WriteString("\n\n")
		b.WriteString(ev.Details)
	}
	if len(ev.Context) > 0 {
		b.WriteString("\n\nThe last lines before the problem were:")
		for _, line := range ev.Context {
			b.WriteString("\n> ")
			b.WriteString(line)
		}
	}
	return b.String()
}
