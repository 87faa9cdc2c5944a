package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Shepard/bardbot-sub001/internal/alert"
	"github.com/Shepard/bardbot-sub001/internal/bot"
	"github.com/Shepard/bardbot-sub001/internal/config"
	"github.com/Shepard/bardbot-sub001/internal/dashboard"
	"github.com/Shepard/bardbot-sub001/internal/db"
	"github.com/Shepard/bardbot-sub001/internal/engine"
	"github.com/Shepard/bardbot-sub001/internal/ink"
	"github.com/Shepard/bardbot-sub001/internal/maintenance"
	"github.com/Shepard/bardbot-sub001/internal/present"
	"github.com/Shepard/bardbot-sub001/internal/report"
	"github.com/Shepard/bardbot-sub001/internal/store"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot daemon",
		Long:  "Connects to Discord and serves story sessions until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}

// lateNotifier defers the notifier choice until the bot exists. The
// reporter needs a notifier at construction time, but the notifier is the
// bot itself, which in turn needs the engine — this breaks the cycle.
type lateNotifier struct {
	mu    sync.RWMutex
	inner report.Notifier
}

func (n *lateNotifier) set(inner report.Notifier) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner = inner
}

func (n *lateNotifier) DirectMessage(ctx context.Context, userID, text string) error {
	n.mu.RLock()
	inner := n.inner
	n.mu.RUnlock()
	if inner == nil {
		return fmt.Errorf("notifier not ready")
	}
	return inner.DirectMessage(ctx, userID, text)
}

func runDaemon(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	st := store.New(gdb)

	notifier := &lateNotifier{}
	reporter, err := report.NewReporter(st, notifier)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Opts{
		Store:         st,
		Reporter:      reporter,
		Compile:       ink.Compile,
		StepBudget:    cfg.Engine.StepBudget(),
		LoopThreshold: cfg.Engine.LoopThreshold,
	})
	if err != nil {
		return err
	}

	b, err := bot.New(bot.Opts{
		Token:     cfg.Discord.Token,
		Engine:    eng,
		Store:     st,
		Presenter: present.New(nil),
	})
	if err != nil {
		return err
	}
	notifier.set(b)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alerter := alert.New(cfg.Alerts.SlackWebhookURL)

	sched, err := maintenance.New(maintenance.Opts{Cleaner: st, Spec: cfg.Maintenance.CleanupCron})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Dashboard.Enabled {
		go func() {
			if err := dashboard.Start(ctx, dashboard.StartOpts{Stats: st, Port: cfg.Dashboard.Port}); err != nil {
				log.Printf("bardbot: dashboard: %v", err)
			}
		}()
	}

	log.Printf("bardbot: starting")
	if err := b.Run(ctx); err != nil {
		if alertErr := alerter.Error(context.Background(), "bardbot offline", err.Error()); alertErr != nil {
			log.Printf("bardbot: alert: %v", alertErr)
		}
		return err
	}
	log.Printf("bardbot: shut down")
	return nil
}
