package storysync

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v68/github"

	"github.com/Shepard/bardbot-sub001/internal/models"
	"github.com/Shepard/bardbot-sub001/internal/store"
)

type fakeStore struct {
	existing map[string]*models.Story
	saved    []*models.Story
}

func (f *fakeStore) StoryByID(id string) (*models.Story, error) {
	if s, ok := f.existing[id]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) SaveStory(story *models.Story) error {
	f.saved = append(f.saved, story)
	return nil
}

type fakeSessions struct {
	players map[string][]models.StorySession
	deleted []string
}

func (f *fakeSessions) CurrentPlayers(storyID string) ([]models.StorySession, error) {
	return f.players[storyID], nil
}

func (f *fakeSessions) DeleteSession(userID string) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeNotifier struct {
	sent map[string]string
}

func (f *fakeNotifier) DirectMessage(_ context.Context, userID, text string) error {
	if f.sent == nil {
		f.sent = make(map[string]string)
	}
	f.sent[userID] = text
	return nil
}

// newTestSyncer wires a Syncer against a stub GitHub API.
func newTestSyncer(t *testing.T, st *fakeStore, mux *http.ServeMux, extra ...func(*Opts)) *Syncer {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	client.BaseURL = base

	opts := Opts{
		Store:   st,
		Owner:   "ada",
		Repo:    "stories",
		Dir:     "published",
		GuildID: "guild-1",
		UserID:  "ada-1",
		Client:  client,
	}
	for _, fn := range extra {
		fn(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func contentJSON(path, content string) string {
	return fmt.Sprintf(`{"type":"file","name":%q,"path":%q,"encoding":"base64","content":%q}`,
		path, path, base64.StdEncoding.EncodeToString([]byte(content)))
}

func TestSync_ImportsNewStories(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ada/stories/contents/published", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"type":"file","name":"lighthouse.json","path":"published/lighthouse.json"},
			{"type":"file","name":"readme.md","path":"published/readme.md"},
			{"type":"dir","name":"drafts","path":"published/drafts"}
		]`)
	})
	mux.HandleFunc("/repos/ada/stories/contents/published/lighthouse.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, contentJSON("published/lighthouse.json", `{"inkVersion":21}`))
	})

	st := &fakeStore{}
	syncer := newTestSyncer(t, st, mux)

	n, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 1 || len(st.saved) != 1 {
		t.Fatalf("synced = %d, saved = %d", n, len(st.saved))
	}
	got := st.saved[0]
	if got.ID != StoryID("ada", "stories", "published/lighthouse.json") {
		t.Errorf("id = %q", got.ID)
	}
	if got.Title != "lighthouse" || got.Status != models.StoryStatusTesting {
		t.Errorf("story = %+v", got)
	}
	if got.Content != `{"inkVersion":21}` {
		t.Errorf("content = %q", got.Content)
	}
	if got.GuildID != "guild-1" || got.OwnerID != "ada-1" {
		t.Errorf("ownership = %q %q", got.GuildID, got.OwnerID)
	}
}

func TestSync_UpdatesKeepStatus(t *testing.T) {
	id := StoryID("ada", "stories", "published/lighthouse.json")
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ada/stories/contents/published", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"lighthouse.json","path":"published/lighthouse.json"}]`)
	})
	mux.HandleFunc("/repos/ada/stories/contents/published/lighthouse.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, contentJSON("published/lighthouse.json", "v2"))
	})

	st := &fakeStore{existing: map[string]*models.Story{
		id: {ID: id, Title: "The Lighthouse", Status: models.StoryStatusPublished, Content: "v1"},
	}}
	syncer := newTestSyncer(t, st, mux)

	if _, err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got := st.saved[0]
	if got.Status != models.StoryStatusPublished || got.Title != "The Lighthouse" {
		t.Errorf("existing metadata overwritten: %+v", got)
	}
	if got.Content != "v2" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestSync_ChangedContentWithdrawsActiveSessions(t *testing.T) {
	id := StoryID("ada", "stories", "published/lighthouse.json")
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ada/stories/contents/published", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"lighthouse.json","path":"published/lighthouse.json"}]`)
	})
	mux.HandleFunc("/repos/ada/stories/contents/published/lighthouse.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, contentJSON("published/lighthouse.json", "v2"))
	})

	st := &fakeStore{existing: map[string]*models.Story{
		id: {ID: id, Title: "The Lighthouse", Status: models.StoryStatusPublished, Content: "v1"},
	}}
	sessions := &fakeSessions{players: map[string][]models.StorySession{
		id: {{UserID: "player-1", StoryID: id}, {UserID: "player-2", StoryID: id}},
	}}
	notify := &fakeNotifier{}
	syncer := newTestSyncer(t, st, mux, func(o *Opts) {
		o.Sessions = sessions
		o.Notify = notify
	})

	if _, err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(sessions.deleted) != 2 {
		t.Fatalf("deleted = %v, want both players cleared", sessions.deleted)
	}
	for _, userID := range []string{"player-1", "player-2"} {
		if !strings.Contains(notify.sent[userID], "The Lighthouse") {
			t.Errorf("notice to %s = %q", userID, notify.sent[userID])
		}
	}
}

func TestSync_UnchangedContentKeepsSessions(t *testing.T) {
	id := StoryID("ada", "stories", "published/lighthouse.json")
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ada/stories/contents/published", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"lighthouse.json","path":"published/lighthouse.json"}]`)
	})
	mux.HandleFunc("/repos/ada/stories/contents/published/lighthouse.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, contentJSON("published/lighthouse.json", "v1"))
	})

	st := &fakeStore{existing: map[string]*models.Story{
		id: {ID: id, Title: "The Lighthouse", Status: models.StoryStatusPublished, Content: "v1"},
	}}
	sessions := &fakeSessions{players: map[string][]models.StorySession{
		id: {{UserID: "player-1", StoryID: id}},
	}}
	syncer := newTestSyncer(t, st, mux, func(o *Opts) { o.Sessions = sessions })

	if _, err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(sessions.deleted) != 0 {
		t.Errorf("deleted = %v, want sessions kept when content is unchanged", sessions.deleted)
	}
}

func TestSync_BrokenFileDoesNotBlockOthers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ada/stories/contents/published", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"type":"file","name":"broken.json","path":"published/broken.json"},
			{"type":"file","name":"fine.json","path":"published/fine.json"}
		]`)
	})
	mux.HandleFunc("/repos/ada/stories/contents/published/broken.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/repos/ada/stories/contents/published/fine.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, contentJSON("published/fine.json", "{}"))
	})

	st := &fakeStore{}
	syncer := newTestSyncer(t, st, mux)

	n, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 1 || len(st.saved) != 1 || st.saved[0].Title != "fine" {
		t.Errorf("synced = %d, saved = %+v", n, st.saved)
	}
}

func TestStoryID_Stable(t *testing.T) {
	a := StoryID("ada", "stories", "published/lighthouse.json")
	b := StoryID("ada", "stories", "published/lighthouse.json")
	c := StoryID("ada", "stories", "published/other.json")
	if a != b {
		t.Error("same coordinates must yield the same id")
	}
	if a == c {
		t.Error("different paths must yield different ids")
	}
}
