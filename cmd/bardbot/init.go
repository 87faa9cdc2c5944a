package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const configTemplate = `discord:
  token: %q

database:
  driver: sqlite
  path: bardbot.db

engine:
  step_budget_ms: 300
  loop_threshold: 10

dashboard:
  enabled: false
  port: 8080

maintenance:
  cleanup_cron: "0 4 * * *"
`

func newInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long:  "Prompts for the Discord bot token (hidden input) and writes a config file with defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to write the config file")
	return cmd
}

func runInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("init: %s already exists, not overwriting", configPath)
	}

	fmt.Fprint(out, "Discord bot token: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("init: read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("init: token must not be empty")
	}

	content := fmt.Sprintf(configTemplate, token)
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("init: write %s: %w", configPath, err)
	}
	fmt.Fprintf(out, "Wrote %s. Start the bot with: bardbot run -c %s\n", configPath, configPath)
	return nil
}
