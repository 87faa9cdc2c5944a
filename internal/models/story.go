package models

import "time"

// Story lifecycle statuses.
const (
	StoryStatusDraft       = "draft"
	StoryStatusTesting     = "testing"
	StoryStatusPublished   = "published"
	StoryStatusUnlisted    = "unlisted"
	StoryStatusToBeDeleted = "to_be_deleted"
)

// Story is the author-owned record for one narrative document: metadata,
// lifecycle status, and the reporting state maintained by the engine. The
// report flags are monotonic until cleared by management action, and the
// overrun counter only ever grows.
type Story struct {
	ID      string `gorm:"primaryKey;size:36"`
	GuildID string `gorm:"size:32;index;not null"`
	OwnerID string `gorm:"size:32;index;not null"`
	Title   string `gorm:"size:256;not null"`
	Author  string `gorm:"size:128"`
	Teaser  string `gorm:"type:text"`
	Status  string `gorm:"size:16;default:draft;index"`
	Content string `gorm:"type:mediumtext"`

	ReportedInkError      bool `gorm:"default:false"`
	ReportedInkWarning    bool `gorm:"default:false"`
	ReportedPotentialLoop bool `gorm:"default:false"`
	ReportedMaxChoices    bool `gorm:"default:false"`

	TimeBudgetExceededCount int `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StorySuggestion links a story to one suggested as a follow-up at its end.
type StorySuggestion struct {
	StoryID     string `gorm:"primaryKey;size:36"`
	SuggestedID string `gorm:"primaryKey;size:36"`
	Position    int    `gorm:"default:0"`

	Story     Story `gorm:"foreignKey:StoryID"`
	Suggested Story `gorm:"foreignKey:SuggestedID"`
}
