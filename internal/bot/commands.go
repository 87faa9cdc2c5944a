package bot

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Shepard/bardbot-sub001/internal/engine"
)

// commandDefinitions is the global slash command set.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Start playing a story",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "story",
				Description: "The story to play",
				Required:    true,
			}},
		},
		{
			Name:        "stop",
			Description: "Stop the story you are currently playing",
		},
		{
			Name:        "state",
			Description: "Show where you are in your current story",
		},
		{
			Name:        "restart",
			Description: "Restart your current story from the beginning",
		},
		{
			Name:        "roll",
			Description: "Roll dice",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "dice",
				Description: "Dice to roll, like 2d6",
			}},
		},
		{
			Name:        "coinflip",
			Description: "Flip a coin",
		},
		{
			Name:        "bookmark",
			Description: "Save a note to the guild's bookmarks channel",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "What to bookmark",
				Required:    true,
			}},
		},
		{
			Name:        "quote",
			Description: "Post a quote to the guild's quotes channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "The quote",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "who",
					Description: "Who said it",
				},
			},
		},
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "play":
		b.handlePlay(ctx, i)
	case "stop":
		b.handleStop(i)
	case "state":
		b.handleState(ctx, i)
	case "restart":
		b.handleRestart(ctx, i)
	case "roll":
		b.handleRoll(i)
	case "coinflip":
		b.handleCoinflip(i)
	case "bookmark":
		b.handleBookmark(ctx, i)
	case "quote":
		b.handleQuote(ctx, i)
	}
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	parts := strings.Split(i.MessageComponentData().CustomID, ":")
	if len(parts) < 2 || parts[0] != "story" {
		return
	}

	switch parts[1] {
	case "choice":
		if len(parts) != 3 {
			return
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			return
		}
		b.ackUpdate(i)
		turn, err := b.engine.Continue(ctx, user.ID, index, nil)
		b.deliverOutcome(ctx, i, user.ID, turn, err)
	case "restart":
		b.ackUpdate(i)
		turn, err := b.engine.Restart(ctx, user.ID)
		b.deliverOutcome(ctx, i, user.ID, turn, err)
	case "start":
		if len(parts) != 4 {
			return
		}
		b.ackUpdate(i)
		turn, err := b.engine.Start(ctx, user.ID, parts[2], parts[3])
		b.deliverOutcome(ctx, i, user.ID, turn, err)
	}
}

func (b *Bot) handlePlay(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	turn, err := b.engine.Start(ctx, user.ID, optionString(i, "story"), i.GuildID)
	if err != nil && turn == nil {
		b.respondText(i, playerMessage(err), true)
		return
	}

	if i.GuildID == "" {
		b.respondText(i, "Here we go:", false)
	} else {
		b.respondText(i, "Your story begins in your direct messages.", true)
	}
	b.sendTurn(ctx, i, user.ID, turn, err)
}

func (b *Bot) handleStop(i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if err := b.store.DeleteSession(user.ID); err != nil {
		log.Printf("bot: stop session %s: %v", user.ID, err)
		b.respondText(i, "Something went wrong, please try again.", true)
		return
	}
	b.respondText(i, "Your story was stopped. You can pick a new one with /play.", true)
}

func (b *Bot) handleState(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	turn, err := b.engine.Inspect(user.ID)
	if err != nil {
		b.respondText(i, playerMessage(err), true)
		return
	}
	b.respondText(i, "Here's where you are:", true)
	b.sendTurn(ctx, i, user.ID, turn, nil)
}

func (b *Bot) handleRestart(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	turn, err := b.engine.Restart(ctx, user.ID)
	if err != nil && turn == nil {
		b.respondText(i, playerMessage(err), true)
		return
	}
	b.respondText(i, "Starting over:", i.GuildID != "")
	b.sendTurn(ctx, i, user.ID, turn, err)
}

// deliverOutcome handles a turn produced by a component press: the
// interaction was already acknowledged, so results and failures both go to
// the story's DM channel.
func (b *Bot) deliverOutcome(ctx context.Context, i *discordgo.InteractionCreate, userID string, turn *engine.Turn, err error) {
	if err != nil && turn == nil {
		if sendErr := b.sendText(ctx, i.ChannelID, playerMessage(err)); sendErr != nil {
			log.Printf("bot: deliver failure notice: %v", sendErr)
		}
		return
	}
	b.sendTurn(ctx, i, userID, turn, err)
}

// sendTurn renders the turn and delivers it to the user's DM channel, or to
// the interaction's own channel when that already is the DM. A non-nil err
// alongside a turn means the turn is playable but state was not saved; the
// player is warned after the turn's payloads.
func (b *Bot) sendTurn(ctx context.Context, i *discordgo.InteractionCreate, userID string, turn *engine.Turn, err error) {
	channelID := ""
	if i.GuildID == "" {
		channelID = i.ChannelID
	}
	if channelID == "" {
		ch, chErr := b.sess.UserChannelCreate(userID)
		if chErr != nil {
			log.Printf("bot: open dm for %s: %v", userID, chErr)
			return
		}
		channelID = ch.ID
	}

	if deliverErr := b.deliver(ctx, channelID, b.presenter.Render(turn)); deliverErr != nil {
		log.Printf("bot: deliver turn to %s: %v", userID, deliverErr)
		return
	}
	if err != nil {
		if sendErr := b.sendText(ctx, channelID, playerMessage(err)); sendErr != nil {
			log.Printf("bot: deliver save warning: %v", sendErr)
		}
	}
}

func (b *Bot) sendText(ctx context.Context, channelID, text string) error {
	return b.retryOnRateLimit(ctx, func() error {
		_, err := b.sess.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: text})
		return err
	})
}

// playerMessage maps an engine failure to what the player is told.
func playerMessage(err error) string {
	switch engine.CodeOf(err) {
	case engine.CodeStoryNotFound:
		return "Couldn't find that story. Are you currently playing one?"
	case engine.CodeAlreadyPlayingDifferentStory:
		return "You're already in the middle of a story. Finish it or use /stop first."
	case engine.CodeStoryNotStartable:
		return "This story can't be started right now. Its author has been informed."
	case engine.CodeStoryNotContinueable:
		return "Unfortunately this story can't continue. Its author has been informed."
	case engine.CodeInvalidChoice:
		return "That choice isn't available anymore."
	case engine.CodeCouldNotSaveState:
		return "Careful: your progress couldn't be saved just now, so a restart might lose it."
	case engine.CodeTimeBudgetExceeded:
		return "The story took too long to find its next words. Please try again."
	}
	return "Something went wrong, please try again."
}

// optionString returns the named string option of a command, or "".
func optionString(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}
