package models

import "time"

// StorySession is the resumable record of one user's in-progress story.
// There is at most one row per user; its existence is the lock that rejects
// a second concurrent start. StateDoc is the opaque serialized interpreter
// state, nil until the first turn has been persisted.
type StorySession struct {
	UserID   string  `gorm:"primaryKey;size:32"`
	StoryID  string  `gorm:"size:36;index;not null"`
	GuildID  string  `gorm:"size:32"`
	StateDoc *string `gorm:"type:mediumtext"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Story Story `gorm:"foreignKey:StoryID"`
}
