package main

import (
	"context"
	"log/slog"
	"os"
	"skyticker/internal/bluesky"
	"skyticker/internal/config"
	"skyticker/internal/database"
	"skyticker/internal/display"
	"skyticker/internal/httpapi"
	"skyticker/internal/jsondoc"
	"skyticker/internal/ratelimiter"
	"skyticker/internal/summarizer"
	"skyticker/internal/ticker"
)

func newDecoder(cfg config.Config, log *slog.Logger) *jsondoc.Decoder {
	return jsondoc.NewDecoder(jsondoc.RuntimeMemory{Ceiling: cfg.JSONMemoryCeiling}, log)
}

func initDatabase(ctx context.Context, cfg config.Config, log *slog.Logger) (*database.Database, error) {
	return database.New(ctx, cfg.DBPath, log)
}

func initDisplays(ctx context.Context, cfg config.Config, log *slog.Logger) []display.Display {
	displays := []display.Display{
		display.NewTerminal(os.Stdout, cfg.DisplayWidth, cfg.DisplayLines),
	}

	if cfg.TelegramToken == "" {
		return displays
	}

	if cfg.TelegramChatID == 0 {
		log.WarnContext(ctx, "TELEGRAM_CHAT_ID is missing so Telegram display is disabled",
			"envVar", "TELEGRAM_CHAT_ID")

		return displays
	}

	tg, err := display.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, ratelimiter.New(log), log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create Telegram display so it is disabled",
			"error", err,
			"chatID", cfg.TelegramChatID)

		return displays
	}

	log.InfoContext(ctx, "Telegram display is initialized",
		"chatID", cfg.TelegramChatID)

	return append(displays, tg)
}

func initOpenAISummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	if cfg.OpenAIAPIKey == "" {
		log.InfoContext(ctx, "OPENAI_API_KEY is missing so captions will be truncated",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai",
		"cacheMaxEntries", summarizer.DefaultCacheMaxEntries)

	return summarizer.NewCached(s, summarizer.DefaultCacheMaxEntries, summarizer.DefaultCacheTTL)
}

func newTicker(
	ctx context.Context,
	client *bluesky.Client,
	db *database.Database,
	displays []display.Display,
	s summarizer.Summarizer,
	cfg config.Config,
	log *slog.Logger,
) *ticker.Ticker {
	return ticker.New(ctx, client, db, displays, s, ticker.Settings{
		Identifier:      cfg.Identifier,
		Password:        cfg.Password,
		FilterText:      cfg.FilterText,
		UnreadSpec:      cfg.UnreadSpec,
		PopularSpec:     cfg.PopularSpec,
		CaptionMaxChars: cfg.CaptionMaxChars(),
		FallbackProfile: cfg.FallbackProfile,
	}, log)
}

func serveHTTP(
	ctx context.Context,
	addr string,
	client *bluesky.Client,
	tk *ticker.Ticker,
	log *slog.Logger,
) {
	log.InfoContext(ctx, "HTTP server is starting",
		"addr", addr)

	if err := httpapi.New(client, tk, log).ListenAndServe(ctx, addr); err != nil {
		log.ErrorContext(ctx, "HTTP server failed",
			"error", err,
			"addr", addr)
	}
}
