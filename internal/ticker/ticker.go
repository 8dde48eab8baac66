package ticker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"skyticker/internal/bluesky"
	"skyticker/internal/database"
	"skyticker/internal/display"
	"skyticker/internal/summarizer"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	jobTimeout            = 2 * time.Minute
)

type Settings struct {
	Identifier      string
	Password        string
	FilterText      bool
	UnreadSpec      string
	PopularSpec     string
	CaptionMaxChars int
	FallbackProfile string
}

// Ticker drives the client on a schedule and pushes every change to the
// displays. db and summarizer may be nil.
type Ticker struct {
	ctx        context.Context
	cron       *cron.Cron
	client     *bluesky.Client
	db         *database.Database
	displays   []display.Display
	summarizer summarizer.Summarizer
	settings   Settings
	log        *slog.Logger

	mu      sync.Mutex
	caption string
}

func New(
	ctx context.Context,
	client *bluesky.Client,
	db *database.Database,
	displays []display.Display,
	s summarizer.Summarizer,
	settings Settings,
	log *slog.Logger,
) *Ticker {
	return &Ticker{
		ctx:        ctx,
		cron:       cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds))),
		client:     client,
		db:         db,
		displays:   displays,
		summarizer: s,
		settings:   settings,
		log:        log,
	}
}

// Start shows the last saved state, logs in, refreshes once and schedules
// the polling jobs. A failed login is not fatal: the next job retries it.
func (t *Ticker) Start() error {
	t.restore(t.ctx)

	if err := t.Login(t.ctx); err != nil {
		t.log.WarnContext(t.ctx, "Initial login failed, will retry on next tick",
			"error", err)
	}

	if _, err := t.cron.AddFunc(t.settings.UnreadSpec, t.runJob("checkUnread", t.checkUnread)); err != nil {
		return fmt.Errorf("add unread job (spec = %s): %w", t.settings.UnreadSpec, err)
	}

	if _, err := t.cron.AddFunc(t.settings.PopularSpec, t.runJob("refreshPost", t.refreshPost)); err != nil {
		return fmt.Errorf("add popular post job (spec = %s): %w", t.settings.PopularSpec, err)
	}

	t.RefreshNow(t.ctx)

	t.cron.Start()

	return nil
}

func (t *Ticker) Stop() {
	<-t.cron.Stop().Done()
}

// Login logs in with the configured credentials and saves the account.
func (t *Ticker) Login(ctx context.Context) error {
	err := t.client.Login(ctx, t.settings.Identifier, t.settings.Password)
	if err == nil && t.db != nil {
		if saveErr := t.db.SaveAccount(ctx, t.client.Account()); saveErr != nil {
			t.log.ErrorContext(ctx, "Failed to save account",
				"error", saveErr)
		}
	}

	t.show(ctx)

	return err
}

// RefreshNow runs both polling jobs once, synchronously.
func (t *Ticker) RefreshNow(ctx context.Context) {
	t.checkUnread(ctx)
	t.refreshPost(ctx)
}

func (t *Ticker) runJob(name string, job func(ctx context.Context)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(t.ctx, jobTimeout)
		defer cancel()

		select {
		case <-ctx.Done():
			t.log.InfoContext(ctx, "Ticker context is done",
				"error", ctx.Err(),
				"job", name)
			return
		default:
		}

		job(ctx)
	}
}

func (t *Ticker) ensureLogin(ctx context.Context) bool {
	if t.client.Session().LoggedIn() {
		return true
	}

	return t.Login(ctx) == nil
}

func (t *Ticker) checkUnread(ctx context.Context) {
	if !t.ensureLogin(ctx) {
		return
	}

	count, err := t.client.CheckUnread(ctx)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to check unread count",
			"error", err)

		return
	}

	if t.db != nil {
		if err = t.db.SaveUnread(ctx, domainUnread(count)); err != nil {
			t.log.ErrorContext(ctx, "Failed to save unread count",
				"error", err,
				"count", count)
		}
	}

	t.show(ctx)
}

func (t *Ticker) refreshPost(ctx context.Context) {
	post, err := t.fetchPost(ctx)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to fetch post",
			"error", err,
			"postError", post.Error,
			"fallbackProfile", t.settings.FallbackProfile)

		t.show(ctx)

		return
	}

	if t.db != nil {
		if err = t.db.SavePost(ctx, post.Post); err != nil {
			t.log.ErrorContext(ctx, "Failed to save post",
				"error", err,
				"handle", post.Handle)
		}
	}

	caption := t.buildCaption(ctx, post)

	t.mu.Lock()
	t.caption = caption
	t.mu.Unlock()

	t.show(ctx)
}

func (t *Ticker) fetchPost(ctx context.Context) (bluesky.PopularPost, error) {
	var (
		post bluesky.PopularPost
		err  error
	)

	if t.ensureLogin(ctx) {
		post, err = t.client.GetPopularPost(ctx, t.settings.FilterText)
	} else {
		post, err = bluesky.PopularPost{Error: bluesky.ErrorLogin}, bluesky.ErrNotLoggedIn
	}

	if err == nil || t.settings.FallbackProfile == "" {
		return post, err
	}

	t.log.WarnContext(ctx, "Popular post is unavailable, using profile feed",
		"error", err,
		"fallbackProfile", t.settings.FallbackProfile)

	fallback, fallbackErr := t.client.LatestProfilePost(ctx, t.settings.FallbackProfile, t.settings.FilterText)
	if fallbackErr != nil {
		return fallback, errors.Join(err, fmt.Errorf("fetch profile post: %w", fallbackErr))
	}

	return fallback, nil
}

func (t *Ticker) frame() display.Frame {
	state := t.client.State()

	t.mu.Lock()
	caption := t.caption
	t.mu.Unlock()

	return display.Frame{
		Status:    state.Status,
		LoggedIn:  state.LoggedIn,
		HasUnread: state.HasUnread,
		Unread:    state.UnreadCount,
		Post:      state.Post,
		Words:     state.Words,
		Caption:   caption,
	}
}

func (t *Ticker) show(ctx context.Context) {
	frame := t.frame()

	for _, d := range t.displays {
		if err := d.Show(ctx, frame); err != nil {
			t.log.ErrorContext(ctx, "Failed to show frame",
				"error", err,
				"display", fmt.Sprintf("%T", d))
		}
	}
}
