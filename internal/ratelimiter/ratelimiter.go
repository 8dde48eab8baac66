package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	privateChatRate = time.Second
	groupChatRate   = 3 * time.Second
)

// RateLimiter spaces out sends per chat. Group chats (negative IDs) get a
// slower rate than private chats.
type RateLimiter struct {
	mu       sync.Mutex
	lastSent map[int64]time.Time
	log      *slog.Logger
}

func New(log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		lastSent: make(map[int64]time.Time),
		log:      log,
	}
}

// Wait blocks until a send to chatID is allowed and reserves that slot.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	rl.mu.Lock()
	lastSent, exists := rl.lastSent[chatID]
	delay := time.Duration(0)
	if exists {
		delay = getDelay(chatID, lastSent)
	}
	rl.lastSent[chatID] = time.Now().Add(delay)
	rl.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	rl.log.DebugContext(ctx, "Rate limiting message",
		"chatID", chatID,
		"delay", delay)

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func getDelay(
	chatID int64,
	lastSent time.Time,
) time.Duration {
	elapsed := time.Since(lastSent)
	rate := getRate(chatID)

	return max(rate-elapsed, 0)
}

func getRate(chatID int64) time.Duration {
	if chatID < 0 {
		return groupChatRate
	}
	return privateChatRate
}
