package config_test

import (
	"skyticker/internal/config"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BSKY_IDENTIFIER", "me.bsky.social")
	t.Setenv("BSKY_PASSWORD", "secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != "bsky.social" || !cfg.FilterText || cfg.UnreadSpec != "@every 1m" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JSONMemoryCeiling != 262144 || cfg.CaptionMaxChars() != 80 {
		t.Fatalf("unexpected sizes: %+v", cfg)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("BSKY_IDENTIFIER", "")
	t.Setenv("BSKY_PASSWORD", "")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BSKY_IDENTIFIER", "me.bsky.social")
	t.Setenv("BSKY_PASSWORD", "secret")
	t.Setenv("BSKY_HOST", "pds.example.com")
	t.Setenv("FILTER_TEXT", "false")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != "pds.example.com" || cfg.FilterText || cfg.TelegramChatID != -100123 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}
