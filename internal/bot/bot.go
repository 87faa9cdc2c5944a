package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Shepard/bardbot-sub001/internal/engine"
	"github.com/Shepard/bardbot-sub001/internal/models"
	"github.com/Shepard/bardbot-sub001/internal/present"
)

// StoryEngine is the session lifecycle collaborator.
type StoryEngine interface {
	Start(ctx context.Context, userID, storyID, guildID string) (*engine.Turn, error)
	Continue(ctx context.Context, userID string, choiceIndex int, vars map[string]any) (*engine.Turn, error)
	Restart(ctx context.Context, userID string) (*engine.Turn, error)
	Inspect(userID string) (*engine.Turn, error)
}

// BotStore is the slice of persistence the bot layer needs directly:
// stopping a session outside the engine and per-guild settings for the
// utility commands.
type BotStore interface {
	DeleteSession(userID string) error
	GuildConfig(guildID string) (*models.GuildConfig, error)
}

// Bot is the Discord daemon.
type Bot struct {
	sess      session
	engine    StoryEngine
	store     BotStore
	presenter *present.Presenter
	token     string

	sleep func(time.Duration) <-chan time.Time

	mu        sync.Mutex
	appID     string
	connected bool
	closed    bool
}

// Opts holds parameters for creating a Bot.
type Opts struct {
	Token     string
	Engine    StoryEngine
	Store     BotStore
	Presenter *present.Presenter
	// For testing: inject a mock session instead of the real Discord API.
	Session session
	// For testing: replace the pause/backoff timer. Defaults to time.After.
	Sleep func(time.Duration) <-chan time.Time
}

// New creates a Bot.
func New(opts Opts) (*Bot, error) {
	if opts.Session == nil && opts.Token == "" {
		return nil, fmt.Errorf("bot: token is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("bot: engine is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: store is required")
	}
	if opts.Presenter == nil {
		return nil, fmt.Errorf("bot: presenter is required")
	}
	b := &Bot{
		sess:      opts.Session,
		engine:    opts.Engine,
		store:     opts.Store,
		presenter: opts.Presenter,
		token:     opts.Token,
		sleep:     opts.Sleep,
	}
	if b.sleep == nil {
		b.sleep = time.After
	}
	return b, nil
}

// Connect opens the gateway connection, registers the interaction handler,
// and overwrites the global slash command set once the session is ready.
func (b *Bot) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bot: already closed")
	}
	if b.connected {
		return nil
	}

	if b.sess == nil {
		dg, err := discordgo.New("Bot " + b.token)
		if err != nil {
			return fmt.Errorf("bot: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
		b.sess = &realSession{s: dg}
	}

	b.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.mu.Lock()
		b.appID = r.User.ID
		b.mu.Unlock()
		log.Printf("bot: connected as %s (ID: %s)", r.User.Username, r.User.ID)
		if _, err := b.sess.ApplicationCommandBulkOverwrite(r.User.ID, "", commandDefinitions()); err != nil {
			log.Printf("bot: register commands: %v", err)
		}
	})
	b.sess.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(context.Background(), i)
	})

	if err := b.sess.Open(); err != nil {
		return fmt.Errorf("bot: open gateway: %w", err)
	}
	b.connected = true
	return nil
}

// Run connects and blocks until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Connect(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return b.Close()
}

// Close shuts the gateway connection down.
func (b *Bot) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.connected = false
	if b.sess != nil {
		return b.sess.Close()
	}
	return nil
}

// handleInteraction routes one interaction to its handler.
func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	}
}

// interactionUser returns the acting user for guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// respondText answers an interaction with a plain text message.
func (b *Bot) respondText(i *discordgo.InteractionCreate, text string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: text}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("bot: respond to interaction: %v", err)
	}
}

// ackUpdate acknowledges a component press without changing the message.
func (b *Bot) ackUpdate(i *discordgo.InteractionCreate) {
	err := b.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("bot: ack component: %v", err)
	}
}
