// cmd/fieldcrm/main.go
//
// This is the entry point for the fieldcrm terminal client.
//
// Flow:
// 1. Prepare the home directory and load config.yaml
// 2. Wire the HTTP client, optional redis cache and the session
// 3. Start the local status bridge when enabled
// 4. Launch the TUI

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/cache"
	"github.com/kingrea/fieldcrm/internal/config"
	"github.com/kingrea/fieldcrm/internal/logbook"
	"github.com/kingrea/fieldcrm/internal/logging"
	"github.com/kingrea/fieldcrm/internal/session"
	"github.com/kingrea/fieldcrm/internal/statusbridge"
	"github.com/kingrea/fieldcrm/internal/tui"
)

func main() {
	server := flag.String("server", "", "base URL of the CRM service (saved to config.yaml)")
	home := flag.String("home", "", "fieldcrm home directory (defaults to $FIELDCRM_HOME or ~/.fieldcrm)")
	flag.Parse()

	homeDir := *home
	if homeDir == "" {
		var err error
		homeDir, err = config.DefaultHome()
		if err != nil {
			die("determine home directory: %v", err)
		}
	}
	if err := config.InitDir(homeDir); err != nil {
		die("init %s: %v", homeDir, err)
	}
	cfg, err := config.NewConfig(homeDir)
	if err != nil {
		die("load config: %v", err)
	}
	if *server != "" {
		if err := cfg.SetBaseURL(*server); err != nil {
			die("set server: %v", err)
		}
	}

	journal, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		die("open log: %v", err)
	}
	httpLog, err := logging.New(cfg.HTTPLogPath())
	if err != nil {
		die("open http log: %v", err)
	}
	defer httpLog.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []api.Option{
		api.WithTimeout(cfg.Timeout()),
		api.WithReadRetries(cfg.ReadRetries(), 300*time.Millisecond),
		api.WithLogger(httpLog),
		api.WithRegisterer(reg),
	}
	if cfg.CacheEnabled() {
		store, err := cache.NewClient(cfg.File.Cache.RedisAddr)
		if err != nil {
			// Run uncached.
			journal.Warn("Response cache disabled: %v", err)
		} else {
			defer store.Close()
			opts = append(opts, api.WithCache(store, cfg.File.Cache.TTL))
		}
	}
	client, err := api.New(cfg.BaseURL(), opts...)
	if err != nil {
		die("create client: %v", err)
	}

	sess := session.New(client, session.NewFileStore(cfg.TokenPath()), session.WithLogbook(journal))
	client.Authorize(sess, sess.Invalidate)

	bridge := statusbridge.NewServer(statusbridge.SettingsFromConfig(cfg),
		statusbridge.WithGatherer(reg),
		statusbridge.WithLogger(httpLog),
		statusbridge.WithUser(func() string { return sess.State().User.UserName }),
	)
	if err := bridge.Start(context.Background()); err != nil && !errors.Is(err, statusbridge.ErrDisabled) {
		journal.Warn("Status bridge not started: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bridge.Shutdown(ctx)
	}()

	app, err := tui.NewApp(tui.Deps{Config: cfg, Client: client, Session: sess, Logbook: journal})
	if err != nil {
		die("create app: %v", err)
	}

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fieldcrm: "+format+"\n", args...)
	os.Exit(1)
}
