package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Shepard/bardbot-sub001/internal/chunk"
	"github.com/Shepard/bardbot-sub001/internal/present"
)

const (
	maxDiceCount = 100
	maxDiceSides = 1000
)

func (b *Bot) handleRoll(i *discordgo.InteractionCreate) {
	count, sides, err := parseDice(optionString(i, "dice"))
	if err != nil {
		b.respondText(i, err.Error(), true)
		return
	}

	rolls := make([]string, count)
	total := 0
	for n := 0; n < count; n++ {
		v := rand.Intn(sides) + 1
		rolls[n] = strconv.Itoa(v)
		total += v
	}

	text := fmt.Sprintf("🎲 %dd%d: **%d**", count, sides, total)
	if count > 1 {
		text += " (" + strings.Join(rolls, " + ") + ")"
	}
	// Many small dice can push the breakdown past the message limit.
	parts := chunk.Segment(text, present.MessageLimit)
	b.respondText(i, parts[0], false)
	for _, part := range parts[1:] {
		if err := b.sendText(context.Background(), i.ChannelID, part); err != nil {
			log.Printf("bot: send roll continuation: %v", err)
			return
		}
	}
}

// parseDice parses "NdM" dice notation. An empty spec means one d6.
func parseDice(spec string) (count, sides int, err error) {
	if spec == "" {
		return 1, 6, nil
	}
	c, s, ok := strings.Cut(strings.ToLower(strings.TrimSpace(spec)), "d")
	if !ok {
		return 0, 0, fmt.Errorf("I don't understand %q. Try something like 2d6.", spec)
	}
	count = 1
	if c != "" {
		count, err = strconv.Atoi(c)
		if err != nil {
			return 0, 0, fmt.Errorf("I don't understand %q. Try something like 2d6.", spec)
		}
	}
	sides, err = strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("I don't understand %q. Try something like 2d6.", spec)
	}
	if count < 1 || count > maxDiceCount {
		return 0, 0, fmt.Errorf("I can roll between 1 and %d dice.", maxDiceCount)
	}
	if sides < 2 || sides > maxDiceSides {
		return 0, 0, fmt.Errorf("Dice need between 2 and %d sides.", maxDiceSides)
	}
	return count, sides, nil
}

func (b *Bot) handleCoinflip(i *discordgo.InteractionCreate) {
	side := "Heads"
	if rand.Intn(2) == 1 {
		side = "Tails"
	}
	b.respondText(i, "🪙 "+side+"!", false)
}

func (b *Bot) handleBookmark(ctx context.Context, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		b.respondText(i, "Bookmarks only work in a guild.", true)
		return
	}
	gc, err := b.store.GuildConfig(i.GuildID)
	if err != nil {
		log.Printf("bot: guild config %s: %v", i.GuildID, err)
		b.respondText(i, "Something went wrong, please try again.", true)
		return
	}
	if gc.BookmarksChannelID == "" {
		b.respondText(i, "This guild has no bookmarks channel configured.", true)
		return
	}

	user := interactionUser(i)
	text := fmt.Sprintf("🔖 %s\n— bookmarked by <@%s>", optionString(i, "text"), user.ID)
	for _, part := range chunk.Segment(text, present.MessageLimit) {
		if err := b.sendText(ctx, gc.BookmarksChannelID, part); err != nil {
			log.Printf("bot: post bookmark: %v", err)
			b.respondText(i, "Couldn't post to the bookmarks channel.", true)
			return
		}
	}
	b.respondText(i, "Bookmarked!", true)
}

func (b *Bot) handleQuote(ctx context.Context, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		b.respondText(i, "Quotes only work in a guild.", true)
		return
	}
	gc, err := b.store.GuildConfig(i.GuildID)
	if err != nil {
		log.Printf("bot: guild config %s: %v", i.GuildID, err)
		b.respondText(i, "Something went wrong, please try again.", true)
		return
	}
	if gc.QuotesChannelID == "" {
		b.respondText(i, "This guild has no quotes channel configured.", true)
		return
	}

	quoted := "> " + strings.ReplaceAll(optionString(i, "text"), "\n", "\n> ")
	if who := optionUser(i, "who"); who != "" {
		quoted += "\n— <@" + who + ">"
	}
	for _, part := range chunk.Segment(quoted, present.MessageLimit) {
		if err := b.sendText(ctx, gc.QuotesChannelID, part); err != nil {
			log.Printf("bot: post quote: %v", err)
			b.respondText(i, "Couldn't post to the quotes channel.", true)
			return
		}
	}
	b.respondText(i, "Quoted!", true)
}

// optionUser returns the named user option's ID, or "".
func optionUser(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			if u := opt.UserValue(nil); u != nil {
				return u.ID
			}
		}
	}
	return ""
}
