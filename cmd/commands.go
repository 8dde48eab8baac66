package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"skyticker/internal/bluesky"
	"skyticker/internal/config"
	"skyticker/internal/display"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd(log *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "skyticker",
		Short:         "Show Bluesky's most popular post and your unread count on a small display",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(log),
		newPostCmd(log),
		newUnreadCmd(log),
	)

	return rootCmd
}

func newRunCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll on a schedule and keep the displays up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), log)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg, log)
		},
	}
}

func newPostCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Log in, fetch the most popular post once and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(ctx, log)
			if err != nil {
				return err
			}

			client := newClient(cfg, log)
			if err = client.Login(ctx, cfg.Identifier, cfg.Password); err != nil {
				log.ErrorContext(ctx, "Failed to log in",
					"error", err,
					"host", client.Host())

				return err
			}

			post, err := client.GetPopularPost(ctx, cfg.FilterText)
			if err != nil {
				log.ErrorContext(ctx, "Failed to fetch popular post",
					"error", err,
					"postError", post.Error)

				return err
			}

			term := display.NewTerminal(cmd.OutOrStdout(), cfg.DisplayWidth, cfg.DisplayLines)

			return term.Show(ctx, display.Frame{
				LoggedIn: true,
				Post:     post.Post,
				Words:    post.Words,
			})
		},
	}
}

func newUnreadCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Log in and print the unread notification count once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(ctx, log)
			if err != nil {
				return err
			}

			client := newClient(cfg, log)
			if err = client.Login(ctx, cfg.Identifier, cfg.Password); err != nil {
				log.ErrorContext(ctx, "Failed to log in",
					"error", err,
					"host", client.Host())

				return err
			}

			count, err := client.CheckUnread(ctx)
			if err != nil {
				log.ErrorContext(ctx, "Failed to check unread count",
					"error", err)

				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), count)

			return err
		},
	}
}

func loadConfig(ctx context.Context, log *slog.Logger) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := initDatabase(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return err
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	client := newClient(cfg, log)
	displays := initDisplays(ctx, cfg, log)
	summarizer := initOpenAISummarizer(ctx, cfg, log)

	tk := newTicker(ctx, client, db, displays, summarizer, cfg, log)
	if err = tk.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start ticker",
			"error", err,
			"unreadSpec", cfg.UnreadSpec,
			"popularSpec", cfg.PopularSpec)

		return err
	}
	defer tk.Stop()
	log.InfoContext(ctx, "Ticker is started",
		"host", client.Host(),
		"unreadSpec", cfg.UnreadSpec,
		"popularSpec", cfg.PopularSpec,
		"displayCount", len(displays))

	// HTTP handlers write through the ticker, so they must be done before
	// the deferred Stop and Close run.
	var g errgroup.Group
	if cfg.HTTPAddr != "" {
		g.Go(func() error {
			serveHTTP(ctx, cfg.HTTPAddr, client, tk, log)

			return nil
		})
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-ctx.Done():
	}
	cancel()
	_ = g.Wait()

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

func newClient(cfg config.Config, log *slog.Logger) *bluesky.Client {
	client := bluesky.NewClient(cfg.Host, nil, newDecoder(cfg, log), log)
	client.SetProfileFeedBase(cfg.ProfileFeedBase)

	return client
}
