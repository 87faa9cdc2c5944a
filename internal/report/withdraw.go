package report

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Shepard/bardbot-sub001/internal/models"
)

// Sessions lists and removes the sessions currently playing a story.
type Sessions interface {
	CurrentPlayers(storyID string) ([]models.StorySession, error)
	DeleteSession(userID string) error
}

// withdrawNotice is sent to each player whose session is being withdrawn.
const withdrawNotice = "The story %q is no longer available, so your current session had to be stopped. Sorry about that!"

// Withdraw stops every session playing the story and tells each affected
// player. Players are handled one at a time; once the platform signals that
// direct messages are being opened too fast, remaining players still lose
// their sessions but are no longer messaged. Returns how many sessions were
// cleared.
func Withdraw(ctx context.Context, sessions Sessions, notify Notifier, story *models.Story) (int, error) {
	players, err := sessions.CurrentPlayers(story.ID)
	if err != nil {
		return 0, err
	}

	cleared := 0
	muted := false
	for _, p := range players {
		if err := sessions.DeleteSession(p.UserID); err != nil {
			log.Printf("report: withdraw session %s: %v", p.UserID, err)
			continue
		}
		cleared++

		if muted || notify == nil {
			continue
		}
		text := fmt.Sprintf(withdrawNotice, story.Title)
		if err := notify.DirectMessage(ctx, p.UserID, text); err != nil {
			if errors.Is(err, ErrTooManyDMs) {
				muted = true
			}
			log.Printf("report: withdraw notice to %s: %v", p.UserID, err)
		}
	}
	return cleared, nil
}
