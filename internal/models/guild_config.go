package models

// GuildConfig stores per-guild settings for the utility commands.
type GuildConfig struct {
	GuildID            string `gorm:"primaryKey;size:32"`
	BookmarksChannelID string `gorm:"size:32"`
	QuotesChannelID    string `gorm:"size:32"`
}
