// Package storysync imports story content from a GitHub repository. Authors
// maintain their compiled story files in a repo; a sync pass pulls every
// story file from a directory and upserts the corresponding story records.
package storysync

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Shepard/bardbot-sub001/internal/models"
	"github.com/Shepard/bardbot-sub001/internal/report"
)

// storyFileSuffix is the extension story files carry in the source repo.
const storyFileSuffix = ".json"

// Store is the persistence slice the syncer needs.
type Store interface {
	StoryByID(id string) (*models.Story, error)
	SaveStory(story *models.Story) error
}

// Syncer pulls story files from one repository directory.
type Syncer struct {
	client   *github.Client
	store    Store
	sessions report.Sessions
	notify   report.Notifier
	owner    string
	repo     string
	dir      string
	ref      string
	guildID  string
	userID   string
}

// Opts holds parameters for creating a Syncer.
type Opts struct {
	Store Store
	// Token is a GitHub access token; empty means unauthenticated access
	// (fine for public repos, subject to lower rate limits).
	Token string
	Owner string
	Repo  string
	// Dir is the directory holding story files; empty means the repo root.
	Dir string
	// Ref is the branch or tag to read; empty means the default branch.
	Ref string
	// GuildID and UserID are recorded as the owning guild and author of
	// imported stories.
	GuildID string
	UserID  string
	// Sessions, when set, lets the syncer withdraw active play sessions of
	// stories whose content changed: their persisted state was produced
	// from the old content and cannot be trusted against the new. Notify
	// may be nil, in which case affected players lose the session without
	// a message.
	Sessions report.Sessions
	Notify   report.Notifier
	// For testing: inject a client instead of building one from Token.
	Client *github.Client
}

// New creates a Syncer.
func New(opts Opts) (*Syncer, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("storysync: store is required")
	}
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("storysync: owner and repo are required")
	}

	client := opts.Client
	if client == nil {
		var httpClient = oauth2.NewClient(context.Background(), nil)
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
			httpClient = oauth2.NewClient(context.Background(), ts)
		}
		client = github.NewClient(httpClient)
	}

	return &Syncer{
		client:   client,
		store:    opts.Store,
		sessions: opts.Sessions,
		notify:   opts.Notify,
		owner:    opts.Owner,
		repo:     opts.Repo,
		dir:      opts.Dir,
		ref:      opts.Ref,
		guildID:  opts.GuildID,
		userID:   opts.UserID,
	}, nil
}

// Sync lists the configured directory and upserts one story per story file.
// New stories start in testing status; existing ones keep their status and
// only get fresh content. Returns how many stories were written.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	opts := &github.RepositoryContentGetOptions{Ref: s.ref}
	_, entries, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, s.dir, opts)
	if err != nil {
		return 0, fmt.Errorf("storysync: list %s/%s/%s: %w", s.owner, s.repo, s.dir, err)
	}

	synced := 0
	for _, entry := range entries {
		if entry.GetType() != "file" || !strings.HasSuffix(entry.GetName(), storyFileSuffix) {
			continue
		}
		if err := s.syncFile(ctx, entry.GetPath()); err != nil {
			// One broken file must not block the rest of the sync.
			log.Printf("storysync: %s: %v", entry.GetPath(), err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (s *Syncer) syncFile(ctx context.Context, path string) error {
	opts := &github.RepositoryContentGetOptions{Ref: s.ref}
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	content, err := file.GetContent()
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	id := StoryID(s.owner, s.repo, path)
	changed := false
	story, err := s.store.StoryByID(id)
	if err != nil {
		story = &models.Story{
			ID:      id,
			GuildID: s.guildID,
			OwnerID: s.userID,
			Title:   titleFromPath(path),
			Status:  models.StoryStatusTesting,
		}
	} else {
		changed = story.Content != content
	}
	story.Content = content

	if err := s.store.SaveStory(story); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	if changed && s.sessions != nil {
		// Sessions in flight hold state serialized from the old content;
		// resuming them against the new content is undefined.
		n, err := report.Withdraw(ctx, s.sessions, s.notify, story)
		if err != nil {
			log.Printf("storysync: withdraw players of %s: %v", story.ID, err)
		} else if n > 0 {
			log.Printf("storysync: %s changed, stopped %d active sessions", story.ID, n)
		}
	}
	return nil
}

// StoryID derives a stable story identity from the file's repo coordinates,
// so re-syncing updates records instead of multiplying them.
func StoryID(owner, repo, path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(owner+"/"+repo+"/"+path)).String()
}

// titleFromPath turns "stories/the-lighthouse.json" into "the-lighthouse".
// The real title comes from the story's own global tags once it is played;
// this is only the fallback shown before then.
func titleFromPath(path string) string {
	name := path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, storyFileSuffix)
}
