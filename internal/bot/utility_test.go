package bot

import (
	"context"
	"strings"
	"testing"
)

func TestParseDice(t *testing.T) {
	tests := []struct {
		spec      string
		count     int
		sides     int
		wantError bool
	}{
		{spec: "", count: 1, sides: 6},
		{spec: "2d6", count: 2, sides: 6},
		{spec: "d20", count: 1, sides: 20},
		{spec: "100d1000", count: 100, sides: 1000},
		{spec: "101d6", wantError: true},
		{spec: "1d1", wantError: true},
		{spec: "0d6", wantError: true},
		{spec: "banana", wantError: true},
		{spec: "2d", wantError: true},
	}
	for _, tt := range tests {
		count, sides, err := parseDice(tt.spec)
		if tt.wantError {
			if err == nil {
				t.Errorf("parseDice(%q): want error", tt.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDice(%q): %v", tt.spec, err)
			continue
		}
		if count != tt.count || sides != tt.sides {
			t.Errorf("parseDice(%q) = %dd%d, want %dd%d", tt.spec, count, sides, tt.count, tt.sides)
		}
	}
}

func TestHandleRoll_RespondsWithTotal(t *testing.T) {
	b, sess, _ := newTestBot(t, &fakeEngine{})

	b.handleInteraction(context.Background(), guildCommand("roll", stringOption("dice", "3d6")))

	resp := sess.lastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "3d6") {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleRoll_BadSpec(t *testing.T) {
	b, sess, _ := newTestBot(t, &fakeEngine{})

	b.handleInteraction(context.Background(), guildCommand("roll", stringOption("dice", "banana")))

	resp := sess.lastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "2d6") {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleCoinflip(t *testing.T) {
	b, sess, _ := newTestBot(t, &fakeEngine{})

	b.handleInteraction(context.Background(), guildCommand("coinflip"))

	resp := sess.lastResponse()
	if resp == nil {
		t.Fatal("no response")
	}
	if !strings.Contains(resp.Data.Content, "Heads") && !strings.Contains(resp.Data.Content, "Tails") {
		t.Errorf("response = %q", resp.Data.Content)
	}
}

func TestHandleBookmark_PostsToConfiguredChannel(t *testing.T) {
	b, sess, store := newTestBot(t, &fakeEngine{})
	store.config.BookmarksChannelID = "marks-1"

	b.handleInteraction(context.Background(), guildCommand("bookmark", stringOption("text", "remember the lamp")))

	sent := sess.allSent()
	if len(sent) != 1 || sent[0].channelID != "marks-1" {
		t.Fatalf("sent = %+v", sent)
	}
	if !strings.Contains(sent[0].data.Content, "remember the lamp") || !strings.Contains(sent[0].data.Content, "<@user-1>") {
		t.Errorf("bookmark = %q", sent[0].data.Content)
	}
	if resp := sess.lastResponse(); resp == nil || !strings.Contains(resp.Data.Content, "Bookmarked") {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleBookmark_NoChannelConfigured(t *testing.T) {
	b, sess, _ := newTestBot(t, &fakeEngine{})

	b.handleInteraction(context.Background(), guildCommand("bookmark", stringOption("text", "x")))

	if n := len(sess.allSent()); n != 0 {
		t.Errorf("sent = %d messages, want none", n)
	}
	if resp := sess.lastResponse(); resp == nil || !strings.Contains(resp.Data.Content, "no bookmarks channel") {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleQuote_FormatsAttribution(t *testing.T) {
	b, sess, store := newTestBot(t, &fakeEngine{})
	store.config.QuotesChannelID = "quotes-1"

	b.handleInteraction(context.Background(), guildCommand("quote",
		stringOption("text", "the lamp is out\nagain"),
	))

	sent := sess.allSent()
	if len(sent) != 1 || sent[0].channelID != "quotes-1" {
		t.Fatalf("sent = %+v", sent)
	}
	if sent[0].data.Content != "> the lamp is out\n> again" {
		t.Errorf("quote = %q", sent[0].data.Content)
	}
}
