package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Shepard/bardbot-sub001/internal/report"
)

// errCodeOpeningDMsTooFast is Discord's JSON error code for opening direct
// message channels faster than allowed.
const errCodeOpeningDMsTooFast = 40003

// DirectMessage implements report.Notifier: it opens (or reuses) the user's
// DM channel and sends one text message. Discord's "opening DMs too fast"
// signal is mapped to report.ErrTooManyDMs so bulk flows can react to it.
func (b *Bot) DirectMessage(ctx context.Context, userID, text string) error {
	ch, err := b.sess.UserChannelCreate(userID)
	if err != nil {
		if isOpeningDMsTooFast(err) {
			return report.ErrTooManyDMs
		}
		return fmt.Errorf("bot: open dm channel for %s: %w", userID, err)
	}

	err = b.retryOnRateLimit(ctx, func() error {
		_, sendErr := b.sess.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{Content: text})
		return sendErr
	})
	if err != nil {
		if isOpeningDMsTooFast(err) {
			return report.ErrTooManyDMs
		}
		return fmt.Errorf("bot: dm %s: %w", userID, err)
	}
	return nil
}

func isOpeningDMsTooFast(err error) bool {
	restErr, ok := err.(*discordgo.RESTError)
	return ok && restErr.Message != nil && restErr.Message.Code == errCodeOpeningDMsTooFast
}
