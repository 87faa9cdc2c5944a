// Package store is the persistence layer for stories and play sessions.
// All operations are row-atomic; the engine's "one session per user"
// invariant rests on the session table's primary key.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Shepard/bardbot-sub001/internal/models"
	"github.com/Shepard/bardbot-sub001/internal/report"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps a GORM connection with the row-level operations the engine,
// reporter, and maintenance jobs need.
type Store struct {
	db *gorm.DB
}

// New creates a Store on an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Session returns the play session for a user, or ErrNotFound.
func (s *Store) Session(userID string) (*models.StorySession, error) {
	var sess models.StorySession
	err := s.db.First(&sess, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: session %s: %w", userID, err)
	}
	return &sess, nil
}

// CreateSession inserts a new session row. It fails if the user already has
// one; callers treat that as "already playing".
func (s *Store) CreateSession(sess *models.StorySession) error {
	if err := s.db.Create(sess).Error; err != nil {
		return fmt.Errorf("store: create session %s: %w", sess.UserID, err)
	}
	return nil
}

// SaveSessionState updates the serialized interpreter state of a session.
func (s *Store) SaveSessionState(userID, doc string) error {
	res := s.db.Model(&models.StorySession{}).
		Where("user_id = ?", userID).
		Update("state_doc", doc)
	if res.Error != nil {
		return fmt.Errorf("store: save state %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearSessionState resets a session's state to "beginning of story".
func (s *Store) ClearSessionState(userID string) error {
	res := s.db.Model(&models.StorySession{}).
		Where("user_id = ?", userID).
		Update("state_doc", nil)
	if res.Error != nil {
		return fmt.Errorf("store: clear state %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a user's session. Deleting a missing session is not
// an error.
func (s *Store) DeleteSession(userID string) error {
	if err := s.db.Delete(&models.StorySession{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("store: delete session %s: %w", userID, err)
	}
	return nil
}

// Story returns a story by id within a guild, or ErrNotFound.
func (s *Store) Story(id, guildID string) (*models.Story, error) {
	var story models.Story
	err := s.db.First(&story, "id = ? AND guild_id = ?", id, guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: story %s: %w", id, err)
	}
	return &story, nil
}

// StoryByID returns a story regardless of guild, or ErrNotFound. Used by
// flows keyed on a session's story reference.
func (s *Store) StoryByID(id string) (*models.Story, error) {
	var story models.Story
	err := s.db.First(&story, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: story %s: %w", id, err)
	}
	return &story, nil
}

// SaveStory upserts a story record.
func (s *Store) SaveStory(story *models.Story) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(story).Error
	if err != nil {
		return fmt.Errorf("store: save story %s: %w", story.ID, err)
	}
	return nil
}

// IncrementOverrun atomically increments a story's budget-overrun counter
// and returns the new value.
func (s *Store) IncrementOverrun(storyID string) (int, error) {
	res := s.db.Model(&models.Story{}).
		Where("id = ?", storyID).
		UpdateColumn("time_budget_exceeded_count", gorm.Expr("time_budget_exceeded_count + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("store: increment overrun %s: %w", storyID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	var story models.Story
	if err := s.db.Select("time_budget_exceeded_count").First(&story, "id = ?", storyID).Error; err != nil {
		return 0, fmt.Errorf("store: read overrun %s: %w", storyID, err)
	}
	return story.TimeBudgetExceededCount, nil
}

// MarkReported sets the delivered flag for a report kind. It returns true
// only for the caller that flipped the flag from false, which makes
// per-kind deduplication a single atomic operation.
func (s *Store) MarkReported(storyID string, kind report.Kind) (bool, error) {
	column, err := reportColumn(kind)
	if err != nil {
		return false, err
	}
	res := s.db.Model(&models.Story{}).
		Where("id = ? AND "+column+" = ?", storyID, false).
		Update(column, true)
	if res.Error != nil {
		return false, fmt.Errorf("store: mark %s on %s: %w", kind, storyID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func reportColumn(kind report.Kind) (string, error) {
	switch kind {
	case report.KindInkError:
		return "reported_ink_error", nil
	case report.KindInkWarning:
		return "reported_ink_warning", nil
	case report.KindPotentialLoop:
		return "reported_potential_loop", nil
	case report.KindMaxChoices:
		return "reported_max_choices", nil
	}
	return "", fmt.Errorf("store: unknown report kind %q", kind)
}

// CurrentPlayers lists the sessions currently referencing a story.
func (s *Store) CurrentPlayers(storyID string) ([]models.StorySession, error) {
	var sessions []models.StorySession
	if err := s.db.Where("story_id = ?", storyID).Order("user_id").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("store: players of %s: %w", storyID, err)
	}
	return sessions, nil
}

// Suggestions lists the follow-up stories configured for a story, in
// position order. Only published suggestions are returned.
func (s *Store) Suggestions(storyID string) ([]models.Story, error) {
	var stories []models.Story
	err := s.db.
		Joins("JOIN story_suggestions ON story_suggestions.suggested_id = stories.id").
		Where("story_suggestions.story_id = ? AND stories.status = ?", storyID, models.StoryStatusPublished).
		Order("story_suggestions.position").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("store: suggestions of %s: %w", storyID, err)
	}
	return stories, nil
}

// PurgeDeletedStories removes stories marked to-be-deleted that no session
// references anymore, together with their suggestion links. Returns the
// number of stories removed.
func (s *Store) PurgeDeletedStories() (int64, error) {
	sub := s.db.Model(&models.StorySession{}).Select("story_id")
	var ids []string
	err := s.db.Model(&models.Story{}).
		Where("status = ? AND id NOT IN (?)", models.StoryStatusToBeDeleted, sub).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("store: find purgeable stories: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.db.Where("story_id IN ? OR suggested_id IN ?", ids, ids).
		Delete(&models.StorySuggestion{}).Error; err != nil {
		return 0, fmt.Errorf("store: purge suggestion links: %w", err)
	}
	res := s.db.Delete(&models.Story{}, "id IN ?", ids)
	if res.Error != nil {
		return 0, fmt.Errorf("store: purge stories: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SweepOrphanSessions deletes sessions whose story no longer exists.
func (s *Store) SweepOrphanSessions() (int64, error) {
	sub := s.db.Model(&models.Story{}).Select("id")
	res := s.db.Where("story_id NOT IN (?)", sub).Delete(&models.StorySession{})
	if res.Error != nil {
		return 0, fmt.Errorf("store: sweep orphan sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Counts returns story and active-session totals for the dashboard.
func (s *Store) Counts() (stories, sessions int64, err error) {
	if err = s.db.Model(&models.Story{}).Count(&stories).Error; err != nil {
		return 0, 0, fmt.Errorf("store: count stories: %w", err)
	}
	if err = s.db.Model(&models.StorySession{}).Count(&sessions).Error; err != nil {
		return 0, 0, fmt.Errorf("store: count sessions: %w", err)
	}
	return stories, sessions, nil
}

// GuildConfig returns the per-guild settings, or an empty config when none
// has been saved yet.
func (s *Store) GuildConfig(guildID string) (*models.GuildConfig, error) {
	var gc models.GuildConfig
	err := s.db.First(&gc, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.GuildConfig{GuildID: guildID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: guild config %s: %w", guildID, err)
	}
	return &gc, nil
}

// SaveGuildConfig upserts the per-guild settings.
func (s *Store) SaveGuildConfig(gc *models.GuildConfig) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		UpdateAll: true,
	}).Create(gc).Error
	if err != nil {
		return fmt.Errorf("store: save guild config %s: %w", gc.GuildID, err)
	}
	return nil
}
