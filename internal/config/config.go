package config

import "github.com/caarlos0/env/v11"

type Config struct {
	Host       string `env:"BSKY_HOST"       envDefault:"bsky.social"`
	Identifier string `env:"BSKY_IDENTIFIER,required,notEmpty"`
	Password   string `env:"BSKY_PASSWORD,required,notEmpty"`
	FilterText bool   `env:"FILTER_TEXT"     envDefault:"true"`

	UnreadSpec  string `env:"UNREAD_SPEC"  envDefault:"@every 1m"`
	PopularSpec string `env:"POPULAR_SPEC" envDefault:"@every 5m"`

	JSONMemoryCeiling int    `env:"JSON_MEMORY_CEILING" envDefault:"262144"`
	DBPath            string `env:"DB_PATH"             envDefault:"skyticker.sqlite"`

	DisplayWidth int `env:"DISPLAY_WIDTH" envDefault:"20"`
	DisplayLines int `env:"DISPLAY_LINES" envDefault:"4"`

	FallbackProfile string `env:"FALLBACK_PROFILE"`
	ProfileFeedBase string `env:"PROFILE_FEED_BASE" envDefault:"https://bsky.app"`

	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`

	HTTPAddr string `env:"HTTP_ADDR"`
}

func Load() (Config, error) {
	return env.ParseAs[Config]()
}

// CaptionMaxChars is how many bytes fit on one page of the display.
func (c Config) CaptionMaxChars() int {
	return c.DisplayWidth * c.DisplayLines
}
