package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shepard/bardbot-sub001/internal/config"
	"github.com/Shepard/bardbot-sub001/internal/db"
	"github.com/Shepard/bardbot-sub001/internal/store"
	"github.com/Shepard/bardbot-sub001/internal/storysync"
)

func newSyncCmd() *cobra.Command {
	var (
		configPath string
		guildID    string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import story files from the configured GitHub repository",
		Long: `Pulls every story file from the repository configured under story_sync
and creates or updates the matching story records. New stories start in
testing status so they can be checked before being published.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, configPath, guildID, userID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	cmd.Flags().StringVar(&guildID, "guild", "", "guild that owns imported stories")
	cmd.Flags().StringVar(&userID, "owner", "", "user recorded as author of imported stories")
	cmd.MarkFlagRequired("guild")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func runSync(cmd *cobra.Command, configPath, guildID, userID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.StorySync.Owner == "" || cfg.StorySync.Repo == "" {
		return fmt.Errorf("sync: story_sync.owner and story_sync.repo must be configured")
	}

	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	st := store.New(gdb)

	syncer, err := storysync.New(storysync.Opts{
		Store: st,
		// The sync command runs detached from the bot process, so changed
		// stories drop their active sessions without player notices.
		Sessions: st,
		Token:    cfg.StorySync.Token,
		Owner:    cfg.StorySync.Owner,
		Repo:     cfg.StorySync.Repo,
		Dir:      cfg.StorySync.Path,
		GuildID:  guildID,
		UserID:   userID,
	})
	if err != nil {
		return err
	}

	n, err := syncer.Sync(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d stories from %s/%s.\n", n, cfg.StorySync.Owner, cfg.StorySync.Repo)
	return nil
}
