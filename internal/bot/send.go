package bot

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Shepard/bardbot-sub001/internal/present"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff for rate-limited API calls.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential retry backoff.
	maxBackoff = 2 * time.Minute
	// pauseDelay is how long a pause payload holds the delivery sequence.
	pauseDelay = 1500 * time.Millisecond
)

// deliver sends a turn's payloads to one channel, in order. A pause payload
// delays the next send instead of producing a message of its own.
func (b *Bot) deliver(ctx context.Context, channelID string, payloads []present.Payload) error {
	for _, p := range payloads {
		if p.Kind == present.KindPause {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-b.sleep(pauseDelay):
			}
			continue
		}
		data := buildMessage(p)
		err := b.retryOnRateLimit(ctx, func() error {
			_, sendErr := b.sess.ChannelMessageSendComplex(channelID, data)
			return sendErr
		})
		if err != nil {
			return fmt.Errorf("bot: send payload: %w", err)
		}
	}
	return nil
}

// buildMessage translates one payload into a Discord message.
func buildMessage(p present.Payload) *discordgo.MessageSend {
	data := &discordgo.MessageSend{}
	switch p.Kind {
	case present.KindText, present.KindOverflow, present.KindEnd:
		data.Content = p.Text
	case present.KindPanel:
		data.Embeds = []*discordgo.MessageEmbed{{
			Title:       p.Panel.Title,
			Description: p.Panel.Body,
			Color:       parseHexColor(p.Panel.Color),
		}}
	case present.KindButtons:
	case present.KindSuggestion:
		data.Embeds = []*discordgo.MessageEmbed{{
			Title:       p.Suggestion.Title,
			Description: p.Suggestion.Teaser,
		}}
		if p.Suggestion.Author != "" {
			data.Embeds[0].Footer = &discordgo.MessageEmbedFooter{Text: "by " + p.Suggestion.Author}
		}
	}
	for _, row := range p.Rows {
		data.Components = append(data.Components, buildRow(row))
	}
	return data
}

func buildRow(row []present.Button) discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	for _, btn := range row {
		buttons = append(buttons, discordgo.Button{
			Label:    btn.Label,
			Style:    buttonStyle(btn),
			CustomID: buttonCustomID(btn),
		})
	}
	return discordgo.ActionsRow{Components: buttons}
}

func buttonCustomID(btn present.Button) string {
	switch btn.Action {
	case present.ActionChoice:
		return fmt.Sprintf("story:choice:%d", btn.ChoiceIndex)
	case present.ActionRestart:
		return "story:restart"
	case present.ActionStart:
		return "story:start:" + btn.StoryID + ":" + btn.GuildID
	}
	return "story:unknown"
}

func buttonStyle(btn present.Button) discordgo.ButtonStyle {
	if btn.Action != present.ActionChoice {
		return discordgo.SecondaryButton
	}
	switch btn.Style {
	case "primary":
		return discordgo.PrimaryButton
	case "secondary":
		return discordgo.SecondaryButton
	case "success":
		return discordgo.SuccessButton
	case "danger":
		return discordgo.DangerButton
	}
	return discordgo.PrimaryButton
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors. It respects context cancellation.
func (b *Bot) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * baseBackoff
		if wait > maxBackoff {
			wait = maxBackoff
		}
		log.Printf("bot: rate limited (attempt %d/%d), retrying in %v", attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.sleep(wait):
		}
	}
	return nil // unreachable
}
